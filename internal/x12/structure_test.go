package x12

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStructure_Valid(t *testing.T) {
	ic, err := assemble(t, testPurchaseOrder, AssembleOptions{})
	require.NoError(t, err)
	assert.NoError(t, ValidateStructure(ic))
}

func TestValidateStructure_InterchangeControlMismatch(t *testing.T) {
	input := strings.Replace(testPurchaseOrder, "IEA*1*000000001~", "IEA*1*000000002~", 1)

	ic, err := assemble(t, input, AssembleOptions{})
	require.NoError(t, err)

	err = ValidateStructure(ic)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrControlMismatch)

	var serr *StructureError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "interchange", serr.Level)
	assert.Contains(t, serr.Error(), "000000002")
}

func TestValidateStructure_GroupControlMismatch(t *testing.T) {
	input := strings.Replace(testPurchaseOrder, "GE*1*1~", "GE*1*7~", 1)

	ic, err := assemble(t, input, AssembleOptions{})
	require.NoError(t, err)

	var serr *StructureError
	require.True(t, errors.As(ValidateStructure(ic), &serr))
	assert.Equal(t, "group", serr.Level)
	assert.Equal(t, 1, serr.Group)
	assert.ErrorIs(t, serr, ErrControlMismatch)
}

func TestValidateStructure_TransactionControlMismatch(t *testing.T) {
	input := strings.Replace(testPurchaseOrder, "SE*6*0001~", "SE*6*0002~", 1)

	ic, err := assemble(t, input, AssembleOptions{})
	require.NoError(t, err)

	var serr *StructureError
	require.True(t, errors.As(ValidateStructure(ic), &serr))
	assert.Equal(t, "transaction", serr.Level)
	assert.Equal(t, 1, serr.Transaction)
	assert.ErrorIs(t, serr, ErrControlMismatch)
}

func TestValidateStructure_MissingEnvelope(t *testing.T) {
	t.Run("missing SE", func(t *testing.T) {
		input := strings.Replace(testPurchaseOrder, "SE*6*0001~", "", 1)
		ic, err := assemble(t, input, AssembleOptions{})
		require.NoError(t, err)
		assert.ErrorIs(t, ValidateStructure(ic), ErrMissingEnvelope)
	})

	t.Run("missing GS", func(t *testing.T) {
		input := testISA + "ST*850*0001~BEG*00*SA*1**20210101~SE*3*0001~IEA*1*000000001~"
		ic, err := assemble(t, input, AssembleOptions{})
		require.NoError(t, err)
		assert.ErrorIs(t, ValidateStructure(ic), ErrMissingEnvelope)
	})

	t.Run("missing trailers are tolerated", func(t *testing.T) {
		input := testISA + "GS*PO*A*B*20210101*1200*1*X*004010~ST*850*0001~SE*2*0001~"
		ic, err := assemble(t, input, AssembleOptions{})
		require.NoError(t, err)
		assert.NoError(t, ValidateStructure(ic))
	})
}

func TestValidateStructure_ControlNumberSymmetry(t *testing.T) {
	numbers := []string{"0001", "0002", "1234", "ABC"}

	for _, st := range numbers {
		for _, se := range numbers {
			input := testISA +
				"GS*PO*A*B*20210101*1200*1*X*004010~" +
				fmt.Sprintf("ST*850*%s~BEG*00*SA*1**20210101~SE*3*%s~", st, se) +
				"GE*1*1~IEA*1*000000001~"

			ic, err := assemble(t, input, AssembleOptions{})
			require.NoError(t, err)

			err = ValidateStructure(ic)
			if st == se {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrControlMismatch)
			}
		}
	}
}
