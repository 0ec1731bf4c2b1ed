// streamclient replays a WAV file over the bridge's streaming endpoint,
// framing audio the way a telephony media stream does, and prints the
// transcript events that come back. Useful for exercising the service
// end to end without a real call.
package main

import (
	"encoding/base64"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/audio"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

const (
	// 20ms of 8kHz mu-law per media frame, matching telephony bridges.
	frameBytes      = 160
	frameIntervalMs = 20
)

func main() {
	audioFile := flag.String("audio", "testdata/sample-8khz.wav", "Path to WAV file (8kHz mono, mu-law or 16-bit PCM)")
	serverURL := flag.String("server", "ws://localhost:8080/v1/stream", "Bridge streaming endpoint")
	roomID := flag.String("room", "agent_demo", "Room to stream into")
	token := flag.String("token", "", "Capability token for the room")
	track := flag.String("track", "inbound", "Track label for media frames")
	flag.Parse()

	frames, err := loadMuLawFrames(*audioFile)
	if err != nil {
		log.Fatalf("Failed to load audio: %v", err)
	}

	u, err := url.Parse(*serverURL)
	if err != nil {
		log.Fatalf("Bad server URL: %v", err)
	}
	q := u.Query()
	q.Set("room", *roomID)
	if *token != "" {
		q.Set("token", *token)
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	log.Printf("Connected to %s", u.String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var ev map[string]any
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			switch ev["type"] {
			case "transcript":
				marker := "partial"
				if ev["isFinal"] == true {
					marker = "final"
				}
				fmt.Printf("[%s/%s] %s: %s\n", ev["track"], ev["channel"], marker, ev["text"])
			default:
				fmt.Printf("event: %v\n", ev)
			}
		}
	}()

	start := map[string]any{
		"event": "start",
		"start": map[string]any{
			"streamSid": "client-" + time.Now().Format("150405"),
			"customParameters": map[string]string{
				"room":  *roomID,
				"token": *token,
			},
		},
	}
	if err := conn.WriteJSON(start); err != nil {
		log.Fatalf("Failed to send start: %v", err)
	}

	log.Printf("Streaming %d frames (room=%s track=%s)", len(frames), *roomID, *track)
	for i, frame := range frames {
		msg := map[string]any{
			"event": "media",
			"media": map[string]any{
				"track":     *track,
				"payload":   base64.StdEncoding.EncodeToString(frame),
				"timestamp": fmt.Sprintf("%d", i*frameIntervalMs),
			},
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Fatalf("Failed to send frame %d: %v", i, err)
		}
		time.Sleep(frameIntervalMs * time.Millisecond)
	}

	// Give in-flight recognition a moment to flush before stopping.
	time.Sleep(2 * time.Second)
	if err := conn.WriteJSON(map[string]any{"event": "stop"}); err != nil {
		log.Fatalf("Failed to send stop: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
	log.Println("Stream finished")
}

// loadMuLawFrames reads a WAV file and returns its audio as fixed-size mu-law
// frames. Format 7 (mu-law) passes through; format 1 (16-bit PCM) is encoded.
func loadMuLawFrames(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("read WAV header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)
	if numChannels != 1 {
		return nil, fmt.Errorf("only mono audio supported, got %d channels", numChannels)
	}
	if sampleRate != 8000 {
		log.Printf("Warning: sample rate is %d Hz, expected 8000 Hz", sampleRate)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var mulaw []byte
	switch audioFormat {
	case 7: // mu-law
		mulaw = data
	case 1: // PCM
		if bitsPerSample != 16 {
			return nil, fmt.Errorf("only 16-bit PCM supported, got %d bits", bitsPerSample)
		}
		samples := make([]int16, len(data)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
		mulaw = audio.EncodeMuLaw(samples)
	default:
		return nil, fmt.Errorf("unsupported WAV format %d", audioFormat)
	}

	var frames [][]byte
	for len(mulaw) >= frameBytes {
		frames = append(frames, mulaw[:frameBytes])
		mulaw = mulaw[frameBytes:]
	}
	if len(mulaw) > 0 {
		frames = append(frames, mulaw)
	}
	return frames, nil
}
