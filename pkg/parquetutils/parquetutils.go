// Package parquetutils encodes and decodes whole parquet files held in memory.
package parquetutils

import (
	"github.com/cockroachdb/errors"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// ReaderConcurrency parallel number of file readers.
var ReaderConcurrency int64 = 4

// WriterConcurrency parallel number of marshalling goroutines.
var WriterConcurrency int64 = 4

// ReadAll decodes every row of the parquet file. T must carry parquet struct tags.
func ReadAll[T any](data []byte) ([]T, error) {
	file := parquetbuffer.NewBufferFileFromBytesNoAlloc(data)
	r, err := reader.NewParquetReader(file, new(T), ReaderConcurrency)
	if err != nil {
		return nil, errors.Wrap(err, "can't create parquet reader")
	}
	defer r.ReadStop()

	rows := make([]T, r.GetNumRows())
	if err := r.Read(&rows); err != nil {
		return nil, errors.Wrap(err, "can't read parquet rows")
	}
	return rows, nil
}

// WriteAll encodes the rows as a snappy-compressed parquet file.
func WriteAll[T any](rows []T) ([]byte, error) {
	file := parquetbuffer.NewBufferFile()
	w, err := writer.NewParquetWriter(file, new(T), WriterConcurrency)
	if err != nil {
		return nil, errors.Wrap(err, "can't create parquet writer")
	}
	w.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := w.Write(rows[i]); err != nil {
			return nil, errors.Wrapf(err, "can't write row %d", i)
		}
	}
	if err := w.WriteStop(); err != nil {
		return nil, errors.Wrap(err, "can't finalize parquet file")
	}
	return file.Bytes(), nil
}
