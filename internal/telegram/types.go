package telegram

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// apiResponse общий конверт ответа Telegram Bot API.
type apiResponse struct {
	Ok     bool     `json:"ok"`
	Result []Update `json:"result"`
}

type sendResponse struct {
	Ok bool `json:"ok"`
}
