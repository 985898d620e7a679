package common_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/gambit/internal/pkg/common"
	bolt "go.etcd.io/bbolt"
)

func TestUint32Bytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{0, 0, 1, 2}, common.Uint32ToBytes(258))
	assert.Equal(t, uint32(258), common.BytesToUint32([]byte{0, 0, 1, 2}, 0))
	assert.Equal(t, uint32(7), common.BytesToUint32(nil, 7))
	assert.Equal(t, uint32(7), common.BytesToUint32([]byte{1}, 7))
}

func TestOpenDatabase(t *testing.T) {
	t.Parallel()

	db, err := common.OpenDatabase(t.TempDir())
	require.NoError(t, err)

	defer func() {
		_ = db.Shutdown()
	}()

	err = db.DB.View(func(tx *bolt.Tx) error {
		assert.NotNil(t, tx.Bucket([]byte(common.ArchiveBlocksBucket)))

		return nil
	})
	require.NoError(t, err)
}

func TestBuildLogger(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	logger, err := common.BuildLogger("info", "json", &out)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("executed block", "height", 3)

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "executed block")
}

func TestBuildLoggerRejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	_, err := common.BuildLogger("loud", "text", nil)
	require.ErrorIs(t, err, common.ErrUnknownLogLevel)

	_, err = common.BuildLogger("info", "xml", nil)
	require.ErrorIs(t, err, common.ErrUnknownLogFormat)
}
