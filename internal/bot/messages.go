package bot

// Replies sent to the chat.
const (
	MsgGreeting          = "Привет! С помощью этого бота ты можешь сгенерировать мем!\nНо сначала введи свой уникальный токен!"
	MsgAlreadyAuthorized = "Вы уже авторизованы!"
	MsgLoggedOut         = "Выполнен логаут!"
	MsgInvalidToken      = "Неверный токен!"
	MsgTokenTaken        = "Этот токен уже занят!"
	MsgAuthorized        = "Вы успешно авторизовались!"
	MsgChooseModel       = "Выберите модель, которую хотите использовать:"
	msgModelSelected     = "Вы выбрали модель %s"
)
