package observability

import (
	"github.com/rs/zerolog"
)

// ZerologObserver emits events to a zerolog.Logger.
type ZerologObserver struct {
	logger zerolog.Logger
}

// NewZerologObserver creates a ZerologObserver that emits to the given logger.
func NewZerologObserver(logger zerolog.Logger) *ZerologObserver {
	return &ZerologObserver{logger: logger}
}

func (o *ZerologObserver) OnEvent(event Event) {
	e := o.logger.WithLevel(zerologLevel(event.Level))
	if !event.Timestamp.IsZero() {
		e = e.Time("event_time", event.Timestamp)
	}
	e = e.Str("source", event.Source)
	for _, k := range sortedKeys(event.Data) {
		v := event.Data[k]
		if err, ok := v.(error); ok {
			e = e.AnErr(k, err)
			continue
		}
		e = e.Interface(k, v)
	}
	e.Msg(string(event.Type))
}

func zerologLevel(l Level) zerolog.Level {
	switch {
	case l <= 4:
		return zerolog.TraceLevel
	case l <= 8:
		return zerolog.DebugLevel
	case l <= 12:
		return zerolog.InfoLevel
	case l <= 16:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
