// ABOUTME: Tests for the query service.
// ABOUTME: Exercises submit, list, report, and the import paths against a real SQLite store.
package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/bptrack/internal/analytics"
	"github.com/harperreed/bptrack/internal/ingest"
	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/storage"
	"github.com/harperreed/bptrack/internal/validation"
)

func newService(t *testing.T) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "bp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, Options{}), db
}

func raw(date, sys, dia string) validation.Raw {
	return validation.Raw{Date: date, Systolic: validation.Str(sys), Diastolic: validation.Str(dia)}
}

func TestSubmitAndList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	r := raw("2025-11-01", "125", "80")
	r.Pulse = validation.Str("70")
	m, warnings, err := svc.Submit(ctx, r)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, 70, *m.Pulse)

	_, _, err = svc.Submit(ctx, raw("2025-11-02", "118", "76"))
	require.NoError(t, err)

	ms, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "2025-11-02", ms[0].DateString())

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSubmitRejectsInvalid(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, _, err := svc.Submit(ctx, raw("2025/11/01", "120", "80"))
	assert.ErrorIs(t, err, validation.ErrInvalidDate)

	_, _, err = svc.Submit(ctx, validation.Raw{Date: "2025-11-01", Systolic: validation.Str("120")})
	assert.ErrorIs(t, err, validation.ErrMissingField)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmitKeepsOutOfRangeWithWarning(t *testing.T) {
	svc, _ := newService(t)

	m, warnings, err := svc.Submit(context.Background(), raw("2025-11-01", "300", "80"))
	require.NoError(t, err)
	assert.Equal(t, 300, m.Systolic)
	require.Len(t, warnings, 1)
	assert.Equal(t, validation.FieldSystolic, warnings[0].Field)
}

func TestSubmitStorageUnavailable(t *testing.T) {
	svc, db := newService(t)
	require.NoError(t, db.Close())

	_, _, err := svc.Submit(context.Background(), raw("2025-11-01", "120", "80"))
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)

	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)

	_, err = svc.Report(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}

func TestReportEmpty(t *testing.T) {
	svc, _ := newService(t)

	rep, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.HasData)
	assert.Nil(t, rep.Latest)
	assert.Empty(t, rep.Groups)
	assert.Empty(t, rep.Trend)
}

func TestReport(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// 2025-01-06 is a Monday, 2025-01-11 a Saturday
	for _, r := range []validation.Raw{
		raw("2025-01-06", "120", "80"),
		raw("2025-01-11", "140", "90"),
		raw("2025-01-07", "130", "70"),
	} {
		_, _, err := svc.Submit(ctx, r)
		require.NoError(t, err)
	}

	rep, err := svc.Report(ctx)
	require.NoError(t, err)
	require.True(t, rep.HasData)
	assert.Equal(t, 3, rep.Summary.Count)
	assert.InDelta(t, 130.0, rep.Summary.Systolic.Mean, 1e-9)
	assert.Equal(t, 140, rep.Summary.Systolic.Max)
	assert.Equal(t, 70, rep.Summary.Diastolic.Min)

	require.Contains(t, rep.Groups, analytics.Workday)
	require.Contains(t, rep.Groups, analytics.Holiday)
	assert.Equal(t, 2, rep.Groups[analytics.Workday].Count)
	assert.InDelta(t, 125.0, rep.Groups[analytics.Workday].Systolic, 1e-9)

	require.NotNil(t, rep.Latest)
	assert.Equal(t, "2025-01-11", rep.Latest.DateString())
	assert.Equal(t, analytics.Holiday, rep.Latest.DayType)

	require.Len(t, rep.Trend, 3)
	assert.Equal(t, "2025-01-06", rep.Trend[0].Date.Format(models.DateLayout))
	assert.Equal(t, "2025-01-11", rep.Trend[2].Date.Format(models.DateLayout))
	assert.Len(t, rep.Annotated, 3)
}

func TestImportCSV(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	input := "date,systolic,diastolic,pulse,note\n" +
		"2025-11-01,125,80,70,morning\n" +
		"2025-11-02,abc,76,68,evening\n" +
		"2025-11-03,122,78,,\n"

	res, err := svc.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 2, res.Rejected[0].Row)
	assert.ErrorIs(t, res.Rejected[0].Err, validation.ErrMissingField)
	assert.Equal(t, validation.FieldSystolic, res.Rejected[0].Field)

	_, err = svc.ImportCSV(ctx, strings.NewReader("when,high,low\n"))
	assert.Error(t, err)
}

func TestImportBackupKeepsOrder(t *testing.T) {
	src, _ := newService(t)
	ctx := context.Background()
	for _, r := range []validation.Raw{
		raw("2025-01-02", "121", "81"),
		raw("2025-01-01", "120", "80"),
		raw("2025-01-02", "122", "82"),
	} {
		_, _, err := src.Submit(ctx, r)
		require.NoError(t, err)
	}
	before, err := src.List(ctx)
	require.NoError(t, err)
	data, err := storage.NewExportData(before).ExportJSON()
	require.NoError(t, err)

	dst, _ := newService(t)
	res, err := dst.ImportBackup(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Accepted)

	after, err := dst.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 3)
	for i := range before {
		assert.Equal(t, before[i].DateString(), after[i].DateString())
		assert.Equal(t, before[i].Systolic, after[i].Systolic)
	}

	_, err = dst.ImportBackup(ctx, []byte("nope"))
	assert.Error(t, err)
}

func TestImportBackupRejectsDamagedRecordsIndividually(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	data := `{"version":"1.0","measurements":[
		{"date":"2025-01-01"},
		{"date":"bad","systolic":120,"diastolic":80},
		{"date":"2025-01-03","systolic":121,"diastolic":81}
	]}`

	res, err := svc.ImportBackup(ctx, []byte(data))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Accepted)
	require.Len(t, res.Rejected, 2)

	assert.Equal(t, 1, res.Rejected[0].Row)
	assert.Equal(t, validation.FieldSystolic, res.Rejected[0].Field)
	assert.ErrorIs(t, res.Rejected[0].Err, validation.ErrMissingField)
	assert.Equal(t, 2, res.Rejected[1].Row)
	assert.ErrorIs(t, res.Rejected[1].Err, validation.ErrInvalidDate)

	ms, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, ms, 1, "no zero reading may be invented for the incomplete record")
	assert.Equal(t, 121, ms[0].Systolic)
	assert.Equal(t, 81, ms[0].Diastolic)
}

func TestImportCSVMalformedRowKeepsValidRows(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	input := "date,systolic,diastolic\n" +
		"2025-01-03,120,80\n" +
		"2025-01-04,12\"0,80\n" +
		"2025-01-05,120,80\n"

	res, err := svc.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 2, res.Rejected[0].Row)
	assert.ErrorIs(t, res.Rejected[0].Err, ingest.ErrMalformedRow)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type slowRepo struct {
	storage.Repository
}

func (slowRepo) ListAll(ctx context.Context) ([]*models.Measurement, error) {
	<-ctx.Done()
	return nil, &storage.Error{Op: "list measurements", Err: ctx.Err()}
}

func TestListHonoursTimeout(t *testing.T) {
	svc := New(slowRepo{}, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWatcherImportsThroughService(t *testing.T) {
	svc, db := newService(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("date,systolic,diastolic\n2025-01-01,120,80\n"), 0600))

	done := make(chan *ingest.Result, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := svc.Watcher(dir, ingest.WatchOptions{
		Settle: 20 * time.Millisecond,
		OnResult: func(_ string, r *ingest.Result, err error) {
			if err == nil {
				done <- r
			}
		},
	})
	go func() { _ = w.Run(ctx) }()

	select {
	case r := <-done:
		assert.Equal(t, 1, r.Accepted)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for inbox import")
	}

	n, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
