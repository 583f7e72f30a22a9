package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Output печатает ответы Relay API: таблицами для оператора или JSON для скриптов.
// Данные идут в stdout, подсказки оператору — в stderr.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutput создаёт Output поверх stdout/stderr.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// ScanQueued печатает результат ручного запуска. Повторный запуск с тем же
// job id не ставится в очередь.
func (o *Output) ScanQueued(resp *TriggerScanResponse) {
	if o.jsonMode {
		o.json(resp)
		return
	}

	if resp.Queued {
		o.notice("Scan queued: %s", resp.JobID)
	} else {
		o.notice("Scan already queued: %s", resp.JobID)
	}
	o.table([]string{"JOB_ID", "QUEUED"}, [][]string{{resp.JobID, strconv.FormatBool(resp.Queued)}})
}

// ScanStatus печатает владельца блокировки и итог последнего цикла.
func (o *Output) ScanStatus(st *ScanStatusResponse) {
	if o.jsonMode {
		o.json(st)
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Lock:\t%s\n", st.Lock.Key)
	fmt.Fprintf(tw, "Holder:\t%s\n", lockHolder(st.Lock))

	if last := st.LastScan; last != nil {
		kind := "scheduled"
		if last.Manual {
			kind = "manual"
		}
		fmt.Fprintf(tw, "Last scan:\t%s (%s)\n", dash(last.FinishedAt), kind)
		fmt.Fprintf(tw, "Found / queued / failed:\t%d / %d / %d\n", last.PostsFound, last.PostsQueued, last.PostsFailed)
		fmt.Fprintf(tw, "Queued posts:\t%s\n", joinIDs(last.QueuedPostIDs))
	} else {
		fmt.Fprintln(tw, "Last scan:\t-")
	}
	tw.Flush()
}

// PostHistory печатает попытки публикации по платформам. Платформы, где
// последняя попытка неуспешна, выводятся отдельной подсказкой.
func (o *Output) PostHistory(h *PostHistoryResponse) {
	if o.jsonMode {
		o.json(h)
		return
	}

	fmt.Fprintf(o.w, "Post %d [%s] %s\n\n", h.PostID, h.TenantID, h.Status)

	rows := make([][]string, len(h.Entries))
	for i, e := range h.Entries {
		ref := e.ExternalPostID
		if e.ExternalURL != "" {
			ref = e.ExternalURL
		}
		rows[i] = []string{e.Platform, strconv.FormatBool(e.Success), dash(ref), dash(e.Error), e.AttemptedAt}
	}
	o.table([]string{"PLATFORM", "SUCCESS", "EXTERNAL", "ERROR", "ATTEMPTED"}, rows)

	if len(h.PendingPlatforms) > 0 {
		o.notice("Post %d needs re-attempt on: %s", h.PostID, strings.Join(h.PendingPlatforms, ", "))
	}
}

func (o *Output) table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

func (o *Output) json(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func (o *Output) notice(format string, args ...any) {
	fmt.Fprintf(o.errW, format+"\n", args...)
}

func lockHolder(l LockResponse) string {
	if !l.Held {
		return "free"
	}
	if l.TTLRemaining == "" {
		return l.Holder
	}
	return fmt.Sprintf("%s (ttl %s)", l.Holder, l.TTLRemaining)
}

func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
