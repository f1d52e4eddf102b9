package logging

import (
	"log/slog"
	"time"
)

const (
	FieldComponent  = "component"
	FieldUserID     = "user_id"
	FieldDatabaseID = "database_id"
	FieldCardID     = "card_id"
	FieldBatch      = "batch_number"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func UserID(id int64) Attr { return slog.Int64(FieldUserID, id) }

func DatabaseID(id int64) Attr { return slog.Int64(FieldDatabaseID, id) }

func CardID(id int64) Attr { return slog.Int64(FieldCardID, id) }

func Batch(number int) Attr { return slog.Int(FieldBatch, number) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attrs for the variadic slog.Logger methods.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}
