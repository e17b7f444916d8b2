package s3parquet

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/gaze-network/erc20-indexer/pkg/parquetutils"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	objects map[string][]byte
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if u.err != nil {
		return nil, u.err
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[aws.ToString(input.Bucket)+"/"+aws.ToString(input.Key)] = data
	return &manager.UploadOutput{}, nil
}

func newTransfer(block uint64, logIndex uint, symbol string, value uint64) entity.Transfer {
	return entity.Transfer{
		Timestamp:   time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
		BlockNumber: block,
		TxHash:      common.HexToHash("0xabc"),
		LogIndex:    logIndex,
		Contract:    common.HexToAddress("0x97a9107c1793bc407d6f527b77e7fff4d812bece"),
		Symbol:      symbol,
		From:        common.HexToAddress("0x01"),
		To:          common.HexToAddress("0x02"),
		RawValue:    uint256.NewInt(value),
		Value:       decimal.NewFromInt(int64(value)),
		Category:    entity.CategoryGenericTransfer,
	}
}

func TestFlush(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads_one_object_per_symbol", func(t *testing.T) {
		uploader := &fakeUploader{}
		repo := NewRepository(uploader, "archive", "/erc20/")

		require.NoError(t, repo.Write(ctx, "AXS", newTransfer(102, 0, "AXS", 5)))
		require.NoError(t, repo.Write(ctx, "AXS", newTransfer(101, 3, "AXS", 7)))
		require.NoError(t, repo.Write(ctx, "AXS", newTransfer(101, 3, "AXS", 7)))
		require.NoError(t, repo.Write(ctx, "SLP", newTransfer(150, 1, "SLP", 9)))
		require.NoError(t, repo.Flush(ctx, 101, 250))

		require.Len(t, uploader.objects, 2)
		data, ok := uploader.objects["archive/erc20/AXS/000000000101-000000000250.parquet"]
		require.True(t, ok)
		rows, err := parquetutils.ReadAll[transferRow](data)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, int64(101), rows[0].BlockNumber)
		assert.Equal(t, "7", rows[0].RawValue)
		assert.Equal(t, "generic_transfer", rows[0].Category)
		assert.Equal(t, int64(102), rows[1].BlockNumber)

		assert.Contains(t, uploader.objects, "archive/erc20/SLP/000000000101-000000000250.parquet")
	})

	t.Run("empty_batch_uploads_nothing", func(t *testing.T) {
		uploader := &fakeUploader{}
		require.NoError(t, NewRepository(uploader, "archive", "").Flush(ctx, 1, 10))
		assert.Empty(t, uploader.objects)
	})

	t.Run("failed_upload_keeps_buffer", func(t *testing.T) {
		uploader := &fakeUploader{err: errors.New("access denied")}
		repo := NewRepository(uploader, "archive", "")
		require.NoError(t, repo.Write(ctx, "WETH", newTransfer(5, 0, "WETH", 1)))

		err := repo.Flush(ctx, 1, 10)
		assert.ErrorIs(t, err, errs.SinkWrite)

		uploader.err = nil
		require.NoError(t, repo.Flush(ctx, 1, 10))
		assert.Contains(t, uploader.objects, "archive/WETH/000000000001-000000000010.parquet")
	})
	t.Run("drops_rows_outside_range", func(t *testing.T) {
		uploader := &fakeUploader{}
		repo := NewRepository(uploader, "archive", "")

		// attempt over [101, 150] fails after block 145 was written
		require.NoError(t, repo.Write(ctx, "AXS", newTransfer(145, 0, "AXS", 1)))
		// retry over [101, 140]
		require.NoError(t, repo.Write(ctx, "AXS", newTransfer(120, 0, "AXS", 2)))
		require.NoError(t, repo.Write(ctx, "RON", newTransfer(150, 0, "RON", 3)))
		require.NoError(t, repo.Flush(ctx, 101, 140))

		require.Len(t, uploader.objects, 1)
		rows, err := parquetutils.ReadAll[transferRow](uploader.objects["archive/AXS/000000000101-000000000140.parquet"])
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(120), rows[0].BlockNumber)

		// the next batch re-derives block 145 and owns it alone
		require.NoError(t, repo.Write(ctx, "AXS", newTransfer(145, 0, "AXS", 1)))
		require.NoError(t, repo.Flush(ctx, 141, 190))
		rows, err = parquetutils.ReadAll[transferRow](uploader.objects["archive/AXS/000000000141-000000000190.parquet"])
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(145), rows[0].BlockNumber)
		assert.NotContains(t, uploader.objects, "archive/RON/000000000141-000000000190.parquet")
	})
}
