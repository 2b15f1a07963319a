package sheets

import (
	"context"
	"errors"
	"testing"

	sheetsapi "google.golang.org/api/sheets/v4"
)

type fakeValuesAPI struct {
	headerRow []interface{}
	getErr    error
	updateErr error
	appendErr error

	updatedRange string
	updated      *sheetsapi.ValueRange
	appendRange  string
	appended     *sheetsapi.ValueRange
}

func (f *fakeValuesAPI) Get(_ context.Context, _ string) (*sheetsapi.ValueRange, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.headerRow == nil {
		return &sheetsapi.ValueRange{}, nil
	}
	return &sheetsapi.ValueRange{Values: [][]interface{}{f.headerRow}}, nil
}

func (f *fakeValuesAPI) Update(_ context.Context, writeRange string, values *sheetsapi.ValueRange) error {
	f.updatedRange = writeRange
	f.updated = values
	return f.updateErr
}

func (f *fakeValuesAPI) Append(_ context.Context, appendRange string, values *sheetsapi.ValueRange) error {
	f.appendRange = appendRange
	f.appended = values
	return f.appendErr
}

func TestEnsureHeaderWritesWhenEmpty(t *testing.T) {
	api := &fakeValuesAPI{}
	client := &Client{api: api, sheetName: "Orders"}

	if err := client.EnsureHeader(context.Background(), []string{"Order Date", "Order ID"}); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if api.updated == nil {
		t.Fatalf("expected header write")
	}
	if api.updatedRange != "'Orders'!1:1" {
		t.Fatalf("unexpected range %q", api.updatedRange)
	}
	if len(api.updated.Values) != 1 || api.updated.Values[0][0] != "Order Date" {
		t.Fatalf("unexpected header values %#v", api.updated.Values)
	}
}

func TestEnsureHeaderSkipsWhenPresent(t *testing.T) {
	api := &fakeValuesAPI{headerRow: []interface{}{"Order Date"}}
	client := &Client{api: api, sheetName: "Orders"}

	if err := client.EnsureHeader(context.Background(), []string{"Order Date", "Order ID"}); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if api.updated != nil {
		t.Fatalf("header should not be rewritten")
	}
}

func TestEnsureHeaderSurfacesReadFailure(t *testing.T) {
	api := &fakeValuesAPI{getErr: errors.New("quota")}
	client := &Client{api: api, sheetName: "Orders"}

	if err := client.EnsureHeader(context.Background(), []string{"Order Date"}); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestAppendRows(t *testing.T) {
	api := &fakeValuesAPI{}
	client := &Client{api: api, sheetName: "Orders"}

	rows := [][]any{{"2025-08-01 10:30", "48213", "Rahim"}}
	if err := client.AppendRows(context.Background(), rows); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if api.appendRange != "'Orders'" {
		t.Fatalf("unexpected append range %q", api.appendRange)
	}
	if len(api.appended.Values) != 1 || api.appended.Values[0][1] != "48213" {
		t.Fatalf("unexpected appended values %#v", api.appended.Values)
	}
}

func TestAppendRowsNoopOnEmpty(t *testing.T) {
	api := &fakeValuesAPI{appendErr: errors.New("should not be called")}
	client := &Client{api: api, sheetName: "Orders"}

	if err := client.AppendRows(context.Background(), nil); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if api.appended != nil {
		t.Fatalf("append should not run for empty input")
	}
}
