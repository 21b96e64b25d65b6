package ports

import "time"

// Clock : источник текущего времени. Подменяется в тестах,
// все проверки сроков действия токенов идут через него
type Clock func() time.Time
