package erc20

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var (
	_ datagateway.SinkWriter   = (*multiSink)(nil)
	_ datagateway.BatchFlusher = (*multiSink)(nil)
)

// multiSink writes every transfer to all of its sinks. A write succeeds only if every sink succeeded.
type multiSink struct {
	sinks []datagateway.SinkWriter
}

func newMultiSink(sinks ...datagateway.SinkWriter) datagateway.SinkWriter {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &multiSink{sinks: sinks}
}

func (m *multiSink) Name() string {
	return strings.Join(lo.Map(m.sinks, func(s datagateway.SinkWriter, _ int) string { return s.Name() }), "+")
}

func (m *multiSink) Write(ctx context.Context, symbol string, record entity.Transfer) error {
	eg, ectx := errgroup.WithContext(ctx)
	for _, sink := range m.sinks {
		eg.Go(func() error {
			if err := sink.Write(ectx, symbol, record); err != nil {
				return errors.Wrapf(err, "sink %s", sink.Name())
			}
			return nil
		})
	}
	return errors.WithStack(eg.Wait())
}

func (m *multiSink) Flush(ctx context.Context, from, to uint64) error {
	eg, ectx := errgroup.WithContext(ctx)
	for _, sink := range m.sinks {
		flusher, ok := sink.(datagateway.BatchFlusher)
		if !ok {
			continue
		}
		eg.Go(func() error {
			if err := flusher.Flush(ectx, from, to); err != nil {
				return errors.Wrapf(err, "sink %s", sink.Name())
			}
			return nil
		})
	}
	return errors.WithStack(eg.Wait())
}
