package main

import (
	"context"
	"encoding/binary"
	"log"
	"os"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate      = 16000
	channels        = 1
	framesPerBuffer = 1024
)

func InitAudio() error {
	log.Println("[Audio] initializing PortAudio...")
	return portaudio.Initialize()
}

func ShutdownAudio() {
	log.Println("[Audio] terminating PortAudio...")
	if err := portaudio.Terminate(); err != nil {
		log.Printf("[Audio] error terminating PortAudio: %v", err)
	}
}

// hasInputDevice and hasOutputDevice require InitAudio to have succeeded.
func hasInputDevice() bool {
	dev, err := portaudio.DefaultInputDevice()
	return err == nil && dev != nil && dev.MaxInputChannels >= channels
}

func hasOutputDevice() bool {
	dev, err := portaudio.DefaultOutputDevice()
	return err == nil && dev != nil && dev.MaxOutputChannels >= channels
}

// CaptureMic reads int16 frames from the default mic into out until ctx is
// done. out is closed on return. When dumpPath is set the raw PCM is also
// written there.
func CaptureMic(ctx context.Context, out chan<- []int16, dumpPath string) error {
	defer close(out)

	var dump *os.File
	if dumpPath != "" {
		f, err := os.Create(dumpPath)
		if err != nil {
			log.Printf("[Audio] cannot create %s: %v", dumpPath, err)
		} else {
			dump = f
			defer func() {
				if err := dump.Close(); err != nil {
					log.Printf("[Audio] error closing %s: %v", dumpPath, err)
				}
			}()
		}
	}

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(channels, 0, sampleRate, len(buffer), &buffer)
	if err != nil {
		return err
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := stream.Read(); err != nil {
			return err
		}

		frame := make([]int16, len(buffer))
		copy(frame, buffer)

		if dump != nil {
			if _, err := dump.Write(int16SliceToBytes(frame)); err != nil {
				log.Printf("[Audio] error writing %s: %v", dumpPath, err)
			}
		}

		select {
		case out <- frame:
		case <-ctx.Done():
			return nil
		}
	}
}

func int16SliceToBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return b
}

func bytesToInt16Slice(data []byte) []int16 {
	n := len(data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out
}

// PlayPCM16 plays raw linear16 PCM (16-bit, 16kHz, mono). It stops between
// buffers once ctx is done and returns ctx.Err().
func PlayPCM16(ctx context.Context, data []byte) error {
	samples := bytesToInt16Slice(data)
	buffer := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(0, channels, sampleRate, len(buffer), &buffer)
	if err != nil {
		return err
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	offset := 0
	for offset < len(samples) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buffer, samples[offset:])
		clear(buffer[n:])
		offset += n
		if err := stream.Write(); err != nil {
			return err
		}
	}
	return nil
}
