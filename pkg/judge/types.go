package judge

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Status ids reported by the judge. Ids below StatusAccepted are not terminal.
const (
	StatusInQueue    = 1
	StatusProcessing = 2
	StatusAccepted   = 3
)

// Submission is one execution request inside a batch.
type Submission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

// Token is the opaque handle the judge hands back for a submission.
type Token string

// Result is the judge's report for a single execution.
type Result struct {
	Token         Token
	StatusID      int
	Stdout        string
	Stderr        string
	CompileOutput string
	TimeSeconds   float64
	MemoryKB      int
}

// Terminal reports whether the execution has finished.
func (r Result) Terminal() bool {
	return r.StatusID >= StatusAccepted
}

type batchRequest struct {
	Submissions []Submission `json:"submissions"`
}

type tokenPayload struct {
	Token string `json:"token"`
}

type statusPayload struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type resultPayload struct {
	Token         string         `json:"token"`
	StatusID      *int           `json:"status_id"`
	Status        *statusPayload `json:"status"`
	Stdout        *string        `json:"stdout"`
	Stderr        *string        `json:"stderr"`
	CompileOutput *string        `json:"compile_output"`
	Time          flexFloat      `json:"time"`
	Memory        flexFloat      `json:"memory"`
}

type batchResultPayload struct {
	Submissions []resultPayload `json:"submissions"`
}

func (p resultPayload) toResult() Result {
	result := Result{
		Token:         Token(p.Token),
		Stdout:        deref(p.Stdout),
		Stderr:        deref(p.Stderr),
		CompileOutput: deref(p.CompileOutput),
		TimeSeconds:   float64(p.Time),
		MemoryKB:      int(p.Memory),
	}
	switch {
	case p.StatusID != nil:
		result.StatusID = *p.StatusID
	case p.Status != nil:
		result.StatusID = p.Status.ID
	}
	return result
}

// flexFloat accepts numbers, numeric strings and null. The judge reports
// time as a decimal string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(parsed)
		return nil
	}

	var parsed float64
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	*f = flexFloat(parsed)
	return nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
