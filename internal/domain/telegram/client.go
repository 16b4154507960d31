package telegram

// Client sends plain text messages to a chat.
// This keeps the poll loop independent of the bot library.
type Client interface {
	SendMessage(chatID int64, text string) error
}
