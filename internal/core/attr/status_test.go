package attr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brinefs/nfs2d/internal/core/backend"
)

func TestMapReasonKnownCodes(t *testing.T) {
	cases := map[backend.Reason]Status{
		backend.ReasonOK:        NFS_OK,
		backend.ReasonNoEnt:     NFSERR_NOENT,
		backend.ReasonNoSuchFile: NFSERR_NOENT,
		backend.ReasonIsDir:     NFSERR_ISDIR,
		backend.ReasonNotDir:    NFSERR_NOTDIR,
		backend.ReasonExist:     NFSERR_EXIST,
		backend.ReasonNotEmpty:  NFSERR_NOTEMPTY,
		backend.ReasonStale:     NFSERR_STALE,
	}
	for reason, want := range cases {
		assert.Equal(t, want, MapReason(reason), "reason %q", reason)
	}
}

func TestMapReasonUnrecognizedFallsBackToIO(t *testing.T) {
	assert.Equal(t, NFSERR_IO, MapReason(backend.ReasonFailure))
	assert.Equal(t, NFSERR_IO, MapReason(backend.Reason("totally-unknown")))
}

func TestMapErrNilIsOK(t *testing.T) {
	assert.Equal(t, NFS_OK, MapErr(nil))
}

func TestMapErrBackendError(t *testing.T) {
	err := backend.NewError(backend.ReasonNoEnt)
	assert.Equal(t, NFSERR_NOENT, MapErr(err))
}

func TestMapErrForeignErrorFallsBackToIO(t *testing.T) {
	assert.Equal(t, NFSERR_IO, MapErr(errors.New("boom")))
}
