package discord

import (
	"log/slog"
)

// trackQueueDepth bounds how many tracks may wait for playback per guild.
// A full queue rejects new tracks instead of blocking the dispatch pipeline.
const trackQueueDepth = 32

// sink abstracts the discordgo voice connection for the player loop so the
// queueing and skip behaviour can be tested without a gateway.
type sink interface {
	// SendOpus transmits one encoded Opus packet. It reports false when the
	// connection is gone and playback should stop.
	SendOpus(packet []byte) bool

	// SetSpeaking toggles the speaking indicator.
	SetSpeaking(speaking bool)
}

// player drains a per-guild track queue, slicing each track into 20 ms PCM
// frames and Opus-encoding them for the sink. One player goroutine runs per
// connected guild.
type player struct {
	guildID string
	queue   chan []byte
	skip    chan struct{}
	done    chan struct{}
	out     sink
	enc     *opusEncoder
}

func newPlayer(guildID string, out sink) (*player, error) {
	enc, err := newOpusEncoder()
	if err != nil {
		return nil, err
	}
	p := &player{
		guildID: guildID,
		queue:   make(chan []byte, trackQueueDepth),
		skip:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		out:     out,
		enc:     enc,
	}
	go p.run()
	return p, nil
}

// enqueue appends a track without blocking. Reports false when the queue is
// full.
func (p *player) enqueue(pcm []byte) bool {
	select {
	case p.queue <- pcm:
		return true
	default:
		return false
	}
}

// requestSkip asks the player to abort the current track. Coalesces with a
// pending skip request.
func (p *player) requestSkip() {
	select {
	case p.skip <- struct{}{}:
	default:
	}
}

// stop terminates the player loop and discards queued tracks.
func (p *player) stop() {
	close(p.done)
}

func (p *player) run() {
	for {
		select {
		case <-p.done:
			return
		case pcm := <-p.queue:
			// Drop a skip that raced in between tracks; it targeted a track
			// that already finished.
			select {
			case <-p.skip:
			default:
			}
			p.play(pcm)
		}
	}
}

// play transmits one track frame by frame. A trailing partial frame is
// zero-padded to keep the encoder's frame size constant.
func (p *player) play(pcm []byte) {
	p.out.SetSpeaking(true)
	defer p.out.SetSpeaking(false)

	for off := 0; off < len(pcm); off += pcmFrameBytes {
		select {
		case <-p.done:
			return
		case <-p.skip:
			return
		default:
		}

		end := off + pcmFrameBytes
		frame := pcm[off:min(end, len(pcm))]
		if len(frame) < pcmFrameBytes {
			padded := make([]byte, pcmFrameBytes)
			copy(padded, frame)
			frame = padded
		}

		packet, err := p.enc.encode(frame)
		if err != nil {
			slog.Warn("call: dropping track after encode failure", "guild_id", p.guildID, "err", err)
			return
		}
		if !p.out.SendOpus(packet) {
			return
		}
	}
}
