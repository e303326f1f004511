package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tailored-agentic-units/alfred/tools"
)

// readExcelFile ignores the model-supplied task_id and reads the file of the
// active session, which the model frequently gets wrong.
func (t *Toolset) readExcelFile(ctx context.Context, sc *tools.SessionContext, args json.RawMessage) (tools.Result, error) {
	sessionID, ok := sc.ActiveSession()
	if !ok {
		return tools.Result{}, tools.ErrNoActiveSession
	}

	var in struct {
		TaskID string `json:"task_id"`
	}
	_ = tools.DecodeArgs(args, &in)
	if in.TaskID != "" && in.TaskID != sessionID {
		t.logger.DebugContext(ctx, "replacing task id with active session", "requested", in.TaskID, "session", sessionID)
	}

	f, err := os.CreateTemp(t.tempDir, "alfred-"+sanitize(sessionID)+"-*.xlsx")
	if err != nil {
		return tools.Result{}, fmt.Errorf("%w: %v", tools.ErrDownload, err)
	}
	path := f.Name()
	defer os.Remove(path)

	if err := t.files.Download(ctx, sessionID, f); err != nil {
		f.Close()
		return tools.Result{}, fmt.Errorf("%w: %w", tools.ErrDownload, err)
	}
	if err := f.Close(); err != nil {
		return tools.Result{}, fmt.Errorf("%w: %v", tools.ErrDownload, err)
	}

	table, err := ReadSheet(path)
	if err != nil {
		return tools.Result{}, err
	}

	return tools.Result{Content: table.Summary()}, nil
}

// ReadSheet loads the first worksheet of the workbook at path, using its
// first row as column names.
func ReadSheet(path string) (*Table, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tools.ErrParse, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", tools.ErrParse)
	}

	rows, err := wb.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tools.ErrParse, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", tools.ErrParse, sheets[0])
	}

	return NewTable(rows[0], rows[1:]), nil
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, id)
}
