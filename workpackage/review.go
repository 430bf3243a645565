package workpackage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// FINGERPRINTS - Cross-referencing worklogs against review snapshots
// =============================================================================

const fingerprintTimeLayout = "2006-01-02T15:04:05.000Z"

// Fingerprint identifies a worklog row, best effort:
// issueKey|startDate|timeSpentHours|author|tipoImputacion, with the start
// date in UTC ISO-8601 with milliseconds and hours to three decimals.
func Fingerprint(w WorklogDetail) string {
	return fingerprintOf(w.IssueKey, w.StartDate, w.TimeSpentHours, w.Author, w.TipoImputacion)
}

func fingerprintOf(issueKey string, start time.Time, hours decimal.Decimal, author, tipo string) string {
	return strings.Join([]string{
		issueKey,
		start.UTC().Format(fingerprintTimeLayout),
		hours.StringFixed(3),
		author,
		tipo,
	}, "|")
}

// snapshotEntry is one worklog cached in a review request. Entries carry
// either a precomputed fingerprint or the worklog fields it is made of.
type snapshotEntry struct {
	ID             json.RawMessage `json:"id"`
	Fingerprint    string          `json:"fingerprint"`
	IssueKey       string          `json:"issueKey"`
	StartDate      string          `json:"startDate"`
	TimeSpentHours decimal.Decimal `json:"timeSpentHours"`
	Author         string          `json:"author"`
	TipoImputacion string          `json:"tipoImputacion"`
}

func (e snapshotEntry) fingerprint() (string, error) {
	if e.Fingerprint != "" {
		return e.Fingerprint, nil
	}
	start, err := time.Parse(time.RFC3339Nano, e.StartDate)
	if err != nil {
		return "", fmt.Errorf("snapshot entry %s: start date: %w", e.id(), err)
	}
	return fingerprintOf(e.IssueKey, start, e.TimeSpentHours, e.Author, e.TipoImputacion), nil
}

func (e snapshotEntry) id() string {
	return rawID(e.ID)
}

// rawID renders a JSON string or number id as text.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.TrimSpace(string(raw))
}

// =============================================================================
// REVIEW INDEX - Claimed and refunded worklogs
// =============================================================================

// ReviewIndex holds the worklog fingerprints under review.
//   - Claimed: in the snapshot of a PENDING request
//   - Refunded: approved in an APPROVED request (approvedIds ∩ snapshot)
type ReviewIndex struct {
	Claimed  map[string]bool
	Refunded map[string]bool
}

// IndexReviewRequests decodes the cached snapshots. A request whose
// snapshot or approved ids do not decode is logged and skipped, so its
// worklogs stay counted.
func IndexReviewRequests(requests []ReviewRequest, log *zap.Logger) ReviewIndex {
	if log == nil {
		log = zap.NewNop()
	}
	idx := ReviewIndex{
		Claimed:  make(map[string]bool),
		Refunded: make(map[string]bool),
	}

	for _, req := range requests {
		if req.Status == ReviewRejected {
			continue
		}
		snapshot, err := decodeSnapshot(req)
		if err != nil {
			log.Warn("skipping review request with malformed snapshot",
				zap.String("review_request", req.ID),
				zap.String("contract", req.ContractID),
				zap.Error(err))
			continue
		}

		switch req.Status {
		case ReviewPending:
			for _, fp := range snapshot.byID {
				idx.Claimed[fp] = true
			}
		case ReviewApproved:
			for id, fp := range snapshot.byID {
				if snapshot.approved[id] {
					idx.Refunded[fp] = true
				}
			}
		}
	}
	return idx
}

type decodedSnapshot struct {
	byID     map[string]string // entry id -> fingerprint
	approved map[string]bool
}

// decodeSnapshot decodes the snapshot entries and, for approved requests,
// the approved entry ids. Entries without an id get a positional one that
// no approved id can match.
func decodeSnapshot(req ReviewRequest) (decodedSnapshot, error) {
	var entries []snapshotEntry
	if err := json.Unmarshal([]byte(req.SnapshotJSON), &entries); err != nil {
		return decodedSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	out := decodedSnapshot{
		byID:     make(map[string]string, len(entries)),
		approved: make(map[string]bool),
	}
	for i, e := range entries {
		fp, err := e.fingerprint()
		if err != nil {
			return decodedSnapshot{}, err
		}
		id := e.id()
		if id == "" {
			id = "#" + strconv.Itoa(i)
		}
		out.byID[id] = fp
	}

	if req.Status != ReviewApproved || strings.TrimSpace(req.ApprovedIDsJSON) == "" {
		return out, nil
	}
	var ids []json.RawMessage
	if err := json.Unmarshal([]byte(req.ApprovedIDsJSON), &ids); err != nil {
		return decodedSnapshot{}, fmt.Errorf("decode approved ids: %w", err)
	}
	for _, raw := range ids {
		if id := rawID(raw); id != "" {
			out.approved[id] = true
		}
	}
	return out, nil
}
