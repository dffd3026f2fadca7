package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/askiada/go-aisingest/internal/aisdb"
)

// MakeAllIndices creates every index of table, one query per index. The table is marked as indexed in the
// working folder once all of them exist.
func (in *Ingester) MakeAllIndices(ctx context.Context, table string) error {
	if in.store == nil {
		return ErrNoDatabase
	}
	spec, err := in.specs.Get(table)
	if err != nil {
		return err
	}

	marker := in.layout.IndexMarker(table)
	done, err := marker.Exists()
	if err != nil {
		return err
	}
	if done {
		in.logger.Info("indices already created", zap.String("table", table))

		return nil
	}
	err = in.layout.Setup()
	if err != nil {
		return err
	}

	queries := spec.IndexQueries()
	names := make([]string, len(queries))
	for i, query := range queries {
		ran, err := in.store.RunQuery(ctx, table, query)
		if err != nil {
			return err
		}
		in.observeUnit("query", !ran)
		in.logger.Info("index ready", zap.String("index", spec.IndexName(spec.Indices[i])), zap.Bool("created", ran))
		names[i] = query.UpdateID
	}

	return marker.WriteLines(names)
}

// ClusterAisClean reorders ais_clean on its MMSI index.
func (in *Ingester) ClusterAisClean(ctx context.Context) error {
	return in.cluster(ctx, aisdb.CleanTable)
}

func (in *Ingester) cluster(ctx context.Context, table string) error {
	if in.store == nil {
		return ErrNoDatabase
	}
	spec, err := in.specs.Get(table)
	if err != nil {
		return err
	}
	query, err := spec.ClusterQuery()
	if err != nil {
		return err
	}

	ran, err := in.store.RunQuery(ctx, table, query)
	if err != nil {
		return err
	}
	in.observeUnit("query", !ran)
	in.logger.Info("table clustered", zap.String("table", table), zap.Bool("ran", ran))

	return nil
}
