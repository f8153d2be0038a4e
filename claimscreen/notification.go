package claimscreen

import (
	"sync"
	"time"
)

type Kind string

const (
	KindUnavailable  Kind = "unavailable"
	KindConnectError Kind = "connect-error"
	KindClaimSuccess Kind = "claim-success"
	KindClaimError   Kind = "claim-error"
)

const (
	msgUnavailable  = "Wallet tidak tersedia."
	msgConnectError = "Gagal koneksi wallet: "
	msgClaimSuccess = "Airdrop berhasil diklaim!"
	msgClaimError   = "Gagal klaim: "
)

type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// IsError reports whether the notification reports a failure.
func (n Notification) IsError() bool {
	return n.Kind != KindClaimSuccess
}

// maxInboxNotes bounds an inbox nobody reads.
const maxInboxNotes = 32

// Inbox holds the notifications not yet shown by one front end. Every inbox of
// a Screen receives every notification.
type Inbox struct {
	lk    sync.Mutex
	notes []Notification
}

func (in *Inbox) push(n Notification) {
	in.lk.Lock()
	defer in.lk.Unlock()
	in.notes = append(in.notes, n)
	if len(in.notes) > maxInboxNotes {
		in.notes = in.notes[len(in.notes)-maxInboxNotes:]
	}
}

// Take returns and forgets the pending notifications.
func (in *Inbox) Take() []Notification {
	in.lk.Lock()
	defer in.lk.Unlock()
	notes := in.notes
	in.notes = nil
	return notes
}
