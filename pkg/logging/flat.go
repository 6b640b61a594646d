package logging

import (
	"encoding/json"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// FlatEncoder writes one JSON object per entry with fixed top-level keys
// (timestamp, level, message, file, function, stack) so log shippers that
// only index top-level fields can read it without a parser.
type FlatEncoder struct {
	zapcore.Encoder
}

// NewFlatEncoder creates a new flat JSON encoder. Key names in config are overridden.
func NewFlatEncoder(config zapcore.EncoderConfig) zapcore.Encoder {
	config.TimeKey = "timestamp"
	config.LevelKey = "level"
	config.MessageKey = "message"
	config.NameKey = "logger"
	config.CallerKey = "file"
	config.StacktraceKey = "stack"
	config.FunctionKey = zapcore.OmitKey
	config.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	config.SkipLineEnding = true
	return &FlatEncoder{Encoder: zapcore.NewJSONEncoder(config)}
}

// Clone creates a copy of the encoder
func (e *FlatEncoder) Clone() zapcore.Encoder {
	return &FlatEncoder{Encoder: e.Encoder.Clone()}
}

// EncodeEntry encodes a log entry as a flat JSON object
func (e *FlatEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	inner, err := e.Encoder.EncodeEntry(entry, fields)
	if err != nil {
		return nil, err
	}
	defer inner.Free()

	obj := map[string]interface{}{}
	if err := json.Unmarshal(inner.Bytes(), &obj); err != nil {
		return nil, err
	}
	if entry.Caller.Defined && entry.Caller.Function != "" {
		obj["function"] = entry.Caller.Function
	}
	if _, ok := obj["timestamp"]; !ok {
		obj["timestamp"] = entry.Time.Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	buf := bufferPool.Get()
	buf.AppendBytes(data)
	buf.AppendString(zapcore.DefaultLineEnding)
	return buf, nil
}
