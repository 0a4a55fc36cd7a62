package state

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Пользователь вводит часовой пояс после /timezone без аргумента
	StateEnteringTimezone UserState = "entering_timezone"
)
