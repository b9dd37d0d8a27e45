package evaluation

import (
	"errors"
	"fmt"
)

// Label is the verdict taxonomy reported to users.
type Label string

const (
	LabelAccepted          Label = "Accepted"
	LabelWrongAnswer       Label = "Wrong Answer"
	LabelTimeLimitExceeded Label = "Time Limit Exceeded"
	LabelCompilationError  Label = "Compilation Error"
	LabelRuntimeSIGSEGV    Label = "Runtime Error (SIGSEGV)"
	LabelRuntimeSIGXFSZ    Label = "Runtime Error (SIGXFSZ)"
	LabelRuntimeSIGFPE     Label = "Runtime Error (SIGFPE)"
	LabelRuntimeSIGABRT    Label = "Runtime Error (SIGABRT)"
	LabelRuntimeNZEC       Label = "Runtime Error (NZEC)"
	LabelRuntimeOther      Label = "Runtime Error (Other)"
	LabelInternalError     Label = "Internal Error"
	LabelExecFormatError   Label = "Exec Format Error"
)

// Judge status codes.
const (
	StatusAccepted          = 3
	StatusWrongAnswer       = 4
	StatusTimeLimitExceeded = 5
	StatusCompilationError  = 6
	StatusRuntimeSIGSEGV    = 7
	StatusRuntimeSIGXFSZ    = 8
	StatusRuntimeSIGFPE     = 9
	StatusRuntimeSIGABRT    = 10
	StatusRuntimeNZEC       = 11
	StatusRuntimeOther      = 12
	StatusInternalError     = 13
	StatusExecFormatError   = 14
)

// ErrProtocol marks judge output that should never reach classification, such
// as a non-terminal status or a batch whose size does not match its cases.
var ErrProtocol = errors.New("judge protocol violation")

// Classify maps a terminal judge status code to its label. Unknown codes map to
// LabelInternalError; codes below StatusAccepted are a protocol violation.
func Classify(code int) (Label, error) {
	if code < StatusAccepted {
		return "", fmt.Errorf("%w: status %d is not terminal", ErrProtocol, code)
	}

	switch code {
	case StatusAccepted:
		return LabelAccepted, nil
	case StatusWrongAnswer:
		return LabelWrongAnswer, nil
	case StatusTimeLimitExceeded:
		return LabelTimeLimitExceeded, nil
	case StatusCompilationError:
		return LabelCompilationError, nil
	case StatusRuntimeSIGSEGV:
		return LabelRuntimeSIGSEGV, nil
	case StatusRuntimeSIGXFSZ:
		return LabelRuntimeSIGXFSZ, nil
	case StatusRuntimeSIGFPE:
		return LabelRuntimeSIGFPE, nil
	case StatusRuntimeSIGABRT:
		return LabelRuntimeSIGABRT, nil
	case StatusRuntimeNZEC:
		return LabelRuntimeNZEC, nil
	case StatusRuntimeOther:
		return LabelRuntimeOther, nil
	case StatusInternalError:
		return LabelInternalError, nil
	case StatusExecFormatError:
		return LabelExecFormatError, nil
	default:
		return LabelInternalError, nil
	}
}

// KnownStatus reports whether code is part of the judge's documented status table.
func KnownStatus(code int) bool {
	return code >= StatusAccepted && code <= StatusExecFormatError
}
