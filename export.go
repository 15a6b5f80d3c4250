package rigmerge

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/scigolib/rigmerge/internal/logging"
)

// SampleRecord is one sample cell in long format, the shape downstream
// analysis notebooks expect.
type SampleRecord struct {
	Signal string  `parquet:"signal,zstd"`
	Unit   string  `parquet:"unit,zstd"`
	Row    int64   `parquet:"row"`
	Time   float64 `parquet:"time"`
	Value  float64 `parquet:"value"`
}

// ExportParquet writes a merged dataset to a long-format Parquet file, one
// record per sample cell. When the dataset has no time column the time
// field repeats the row number.
func ExportParquet(path string, ds *MergedDataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	writer := parquet.NewGenericWriter[SampleRecord](f, parquet.Compression(&parquet.Zstd))

	batch := make([]SampleRecord, 0, 4096)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for r := 0; r < ds.Samples.Rows; r++ {
		t := float64(r)
		if ds.TimeColumn != ColumnNotFound {
			t = ds.Samples.At(r, ds.TimeColumn)
		}
		for c := 0; c < ds.Samples.Cols; c++ {
			desc := SignalDescriptor{Name: fmt.Sprintf("column %d", c)}
			if c < len(ds.Signals) {
				desc = ds.Signals[c]
			}
			batch = append(batch, SampleRecord{
				Signal: desc.Name,
				Unit:   desc.Unit,
				Row:    int64(r),
				Time:   t,
				Value:  ds.Samples.At(r, c),
			})
			if len(batch) == cap(batch) {
				if err := flush(); err != nil {
					f.Close()
					return fmt.Errorf("export %s: %w", path, err)
				}
			}
		}
	}
	if err := flush(); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}

	if err := writer.Close(); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	logging.Component("export").Info("parquet written", "path", path, "rows", ds.Samples.Rows)
	return nil
}
