package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyMapsEveryDocumentedStatus(t *testing.T) {
	expected := map[int]Label{
		3:  LabelAccepted,
		4:  LabelWrongAnswer,
		5:  LabelTimeLimitExceeded,
		6:  LabelCompilationError,
		7:  LabelRuntimeSIGSEGV,
		8:  LabelRuntimeSIGXFSZ,
		9:  LabelRuntimeSIGFPE,
		10: LabelRuntimeSIGABRT,
		11: LabelRuntimeNZEC,
		12: LabelRuntimeOther,
		13: LabelInternalError,
		14: LabelExecFormatError,
	}

	for code, want := range expected {
		got, err := Classify(code)
		require.NoError(t, err)
		require.Equal(t, want, got, "status %d", code)
		require.True(t, KnownStatus(code))
	}
}

func TestClassifyUnknownStatusIsInternalError(t *testing.T) {
	label, err := Classify(999)
	require.NoError(t, err)
	require.Equal(t, LabelInternalError, label)
	require.False(t, KnownStatus(999))
}

func TestClassifyRejectsNonTerminalStatus(t *testing.T) {
	for _, code := range []int{-1, 0, 1, 2} {
		_, err := Classify(code)
		require.True(t, errors.Is(err, ErrProtocol), "status %d", code)
	}
}

func TestLanguageIDTable(t *testing.T) {
	expected := map[string]int{"c": 50, "cpp": 54, "java": 62, "javascript": 102, "python": 109, " Python ": 109}
	for name, id := range expected {
		got, err := LanguageID(name)
		require.NoError(t, err)
		require.Equal(t, id, got)
	}

	_, err := LanguageID("ruby")
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
	require.Equal(t, []string{"c", "cpp", "java", "javascript", "python"}, SupportedLanguages())
}
