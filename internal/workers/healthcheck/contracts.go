package healthcheck

type (
	TelegramNotifier interface {
		SendMessage(chatID int64, text string) error
	}

	Templates interface {
		Get(lang, key string, params map[string]interface{}) string
	}

	Metrics interface {
		WorkerHealth(worker string, healthy bool)
	}
)
