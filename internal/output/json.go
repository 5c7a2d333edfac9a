package output

import (
	"encoding/json"

	"github.com/bandradar/bandradar/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatResults renders verification results as JSON.
func (f *JSONFormatter) FormatResults(results []*core.VerificationResult) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(results, "", "  ")
	} else {
		data, err = json.Marshal(results)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
