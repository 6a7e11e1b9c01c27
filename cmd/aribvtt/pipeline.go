package main

import (
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/aribvtt/container/caption"
	"github.com/ausocean/aribvtt/container/mts"
	"github.com/ausocean/aribvtt/container/mts/pes"
	"github.com/ausocean/aribvtt/vtt"
)

// convert demuxes data (a raw MPEG-TS byte stream), decodes every ARIB
// caption PES packet on the subtitle elementary stream selected by sid (-1
// for an arbitrary program of the PAT; the PAT's program order is not kept),
// and renders the result as a WebVTT
// document. It mirrors the PAT/PMT scan, PCR tracking, and PES reassembly
// loop original_source/to-text-vtt.py performs a packet at a time.
func convert(data []byte, sid int, paletteOverride int, log logging.Logger) ([]byte, error) {
	info, err := mts.FindSubtitleStream(data, sid)
	if err != nil {
		return nil, err
	}
	log.Info("found subtitle stream", "pid", info.SubtitlePID, "pcr_pid", info.PCRPID, "component_tag", info.ComponentTag)
	if info.CompanionPID != 0 {
		if mime, err := pes.SIDToMIMEType(int(info.CompanionStreamType)); err == nil {
			log.Info("found companion stream", "pid", info.CompanionPID, "mime_type", mime)
		}
	}

	dm := mts.NewDemuxer(info.SubtitlePID, info.PCRPID)
	clock := vtt.NewClock()
	track := vtt.NewTrack()

	decodeOne := func(pesPkt []byte) {
		if len(pesPkt) == 0 {
			return
		}
		d := caption.NewDecoder()
		if paletteOverride != 0 {
			d.SetPalette(paletteOverride)
		}
		if err := d.Generate(pesPkt); err != nil {
			log.Warning("could not decode caption PES", "error", err.Error())
			return
		}
		text := d.Text()
		if text == "" {
			return
		}
		if !clock.HasReference() {
			if pcr, ok := dm.FirstPCR(); ok {
				clock.SetReference(pcr)
			}
		}
		start := clock.Elapsed(d.PTS())
		var dur *time.Duration
		if end, ok := d.EndTime(); ok {
			v := time.Duration(end * float64(time.Second))
			dur = &v
		}
		track.Add(start, text, dur)
	}

	for i := 0; i+mts.PacketSize <= len(data); i += mts.PacketSize {
		pesPkt, ok, err := dm.Push(data[i : i+mts.PacketSize])
		if err != nil {
			log.Warning("demux error", "error", err.Error())
			continue
		}
		if ok {
			decodeOne(pesPkt)
		}
	}
	if pesPkt, ok := dm.Flush(); ok {
		decodeOne(pesPkt)
	}

	return track.Bytes(), nil
}
