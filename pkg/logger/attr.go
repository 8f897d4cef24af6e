package logger

import "log/slog"

// Error returns an error attribute, or an empty attribute for nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// UserID returns a user id attribute.
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// NotificationID returns a notification id attribute.
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// Channel returns a delivery channel attribute.
func Channel(ch string) slog.Attr {
	return slog.String("channel", ch)
}

// Provider returns a delivery provider attribute.
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}
