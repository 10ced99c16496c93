package playback

import "sync"

type Track struct {
	Title        string
	Artist       string
	URL          string
	ThumbnailURL string
	RequestedBy  string
}

// Board holds the track currently playing in each guild.
type Board struct {
	mu     sync.RWMutex
	tracks map[string]Track
}

func NewBoard() *Board {
	return &Board{
		tracks: make(map[string]Track),
	}
}

func (b *Board) Set(guildID string, track Track) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tracks[guildID] = track
}

func (b *Board) Current(guildID string) (Track, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tracks[guildID]
	return t, ok
}

func (b *Board) Clear(guildID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tracks, guildID)
}
