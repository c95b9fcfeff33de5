package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// NewRelicLogFormatter is a logrus.Formatter that forwards every entry,
// including its fields, to New Relic before delegating to formatter for local
// output
type NewRelicLogFormatter struct {
	app       *newrelic.Application
	formatter logrus.Formatter
}

func NewNewRelicLogFormatter(app *newrelic.Application, formatter logrus.Formatter) NewRelicLogFormatter {
	return NewRelicLogFormatter{
		app:       app,
		formatter: formatter,
	}
}

func (f NewRelicLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	f.app.RecordLog(newrelic.LogData{
		Severity: e.Level.String(),
		Message:  forwardedMessage(e),
	})

	logBytes, err := f.formatter.Format(e)
	if err != nil {
		return nil, err
	}

	b := bytes.NewBuffer(bytes.TrimRight(logBytes, "\n"))
	if err := newrelic.EnrichLog(b, newrelic.FromApp(f.app)); err != nil {
		return nil, err
	}
	b.WriteString("\n")
	return b.Bytes(), nil
}

func forwardedMessage(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	errorString := "<nil>"
	extraData := make(map[string]interface{})
	for k, v := range e.Data {
		if typed, ok := v.(error); ok && k == logrus.ErrorKey {
			errorString = fmt.Sprintf("%q", typed.Error())
			continue
		}
		extraData[k] = v
	}

	extraDataJsonBytes, err := json.Marshal(extraData)
	if err != nil {
		return e.Message
	}
	return fmt.Sprintf("message=%q, error=%s, data=%s", e.Message, errorString, string(extraDataJsonBytes))
}
