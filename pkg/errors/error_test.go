package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataError_Error(t *testing.T) {
	err := NewValidation("no valid rows in file").
		WithKey("IBM.NYSE.1m").
		WithRows([]RowDetail{
			{Row: 3, Column: "open", Value: "n/a", Reason: "not a valid decimal number"},
			{Row: 7, Reason: "datetime does not match layout"},
		})

	assert.Equal(t,
		`validation_error: no valid rows in file; key: IBM.NYSE.1m; `+
			`row 3, column "open", value "n/a": not a valid decimal number; `+
			`row 7: datetime does not match layout`,
		err.Error())
}

func TestDataError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewDataError(StorageConnectivityError, "save failed").WithCause(cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestCodeOf_WrappedError(t *testing.T) {
	inner := NewNotFound("IBM.NYSE.1m")
	wrapped := fmt.Errorf("export failed: %w", inner)

	code, ok := CodeOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, NotFoundError, code)
	assert.True(t, IsNotFound(wrapped))

	_, ok = CodeOf(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidation("bad input")))
	assert.True(t, IsValidation(NewDataError(CSVParseError, "missing column")))
	assert.False(t, IsValidation(NewDataError(DatafeedError, "upstream 503")))

	assert.True(t, IsTimeout(NewDataError(StorageTimeoutError, "deadline exceeded")))
	assert.True(t, IsStorage(NewDataError(StorageConstraintError, "duplicate key")))
	assert.False(t, IsStorage(NewValidation("bad input")))
}

func TestGetCategory(t *testing.T) {
	testCases := []struct {
		code     ErrorCode
		category Category
	}{
		{ValidationError, CategoryValidation},
		{CSVParseError, CategoryValidation},
		{NotFoundError, CategoryValidation},
		{StorageConnectivityError, CategoryStorage},
		{StorageTimeoutError, CategoryStorage},
		{StorageConstraintError, CategoryStorage},
		{DatafeedError, CategoryExternal},
		{ErrorCode("mystery"), CategoryUnknown},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.category, NewDataError(tc.code, "x").GetCategory(), string(tc.code))
	}
}
