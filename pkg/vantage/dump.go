// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"fmt"
	"sort"
	"time"
)

// archiveEpoch is the default download start when none is given.
var archiveEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.Local)

// dumpAckTimeout gives the console time to scan its archive memory before
// acknowledging a DMPAFT date. Anything below 2 seconds is unreliable.
const dumpAckTimeout = 2 * time.Second

// ArchiveResult is the outcome of an archive download: the accepted records,
// unique by Datetime and sorted ascending, plus the condition that ended the
// download early, if any. A partial result is preferred over total failure
// for a long-running bulk fetch.
type ArchiveResult struct {
	Records []ArchiveRecord

	// Aborted is non-nil when the dump terminated before all pages were
	// read (page retries exhausted). The records gathered up to that
	// point are still present.
	Aborted error
}

// GetArchives downloads the archived interval records in (start, stop].
// A zero start defaults to January 1, 2001; a zero stop defaults to now.
// The start is rounded down to the console's archive period boundary.
func (c *Console) GetArchives(start, stop time.Time) (*ArchiveResult, error) {
	revB, err := c.revB()
	if err != nil {
		return nil, err
	}
	if !revB {
		return nil, fmt.Errorf("%w: Rev A firmware", ErrUnsupportedFormat)
	}
	if err := c.WakeUp(); err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = archiveEpoch
	}
	if stop.IsZero() {
		stop = time.Now()
	}
	period, err := c.ArchivePeriod()
	if err != nil {
		return nil, err
	}
	if period > 0 {
		start = start.Add(-time.Duration(start.Minute()%period) * time.Minute)
	}

	header, err := c.startDump(start)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("pages", header.Pages).Msg("archive dump started")

	stream := &pageStream{console: c, remaining: header.Pages}
	res := &ArchiveResult{}
	seen := make(map[time.Time]bool)
	for {
		page, err := stream.Next()
		if err != nil {
			// Tell the console to abandon the dump and keep what we
			// have so far.
			c.link.Write([]byte{Esc})
			logger.Error().Err(err).Msg("archive dump aborted")
			res.Aborted = err
			break
		}
		if page == nil {
			logger.Info().Int("records", len(res.Records)).Msg("archive dump complete")
			break
		}
		for _, sub := range page.SubRecords() {
			rec, err := ParseArchiveRecord(sub)
			if err != nil {
				logger.Error().Err(err).Msg("bad archive sub-record")
				continue
			}
			if !rec.HasTime {
				logger.Error().Int("page", page.Index).Msg("blank archive slot")
				continue
			}
			if !rec.Datetime.After(start) || rec.Datetime.After(stop) {
				logger.Info().Time("record", rec.Datetime).Msg("record out of range")
				continue
			}
			if seen[rec.Datetime] {
				continue
			}
			seen[rec.Datetime] = true
			res.Records = append(res.Records, *rec)
		}
	}

	sort.Slice(res.Records, func(i, j int) bool {
		return res.Records[i].Datetime.Before(res.Records[j].Datetime)
	})
	return res, nil
}

// startDump issues DMPAFT with the packed start date and validates the dump
// header. On a header CRC failure the console is sent CANCEL.
func (c *Console) startDump(start time.Time) (*DumpHeader, error) {
	if err := c.sendCommand("DMPAFT", []byte{Ack}, 0); err != nil {
		return nil, err
	}
	if _, err := c.link.Write(PackDumpDatetime(start)); err != nil {
		return nil, err
	}
	ack, err := c.link.Read(1, dumpAckTimeout)
	if err != nil {
		return nil, err
	}
	if len(ack) != 1 || ack[0] != Ack {
		return nil, fmt.Errorf("%w: dump request ack %q", ErrBadAck, ack)
	}
	raw, err := c.link.Read(DumpHeaderSize, 0)
	if err != nil {
		return nil, err
	}
	header, err := ParseDumpHeader(raw)
	if err != nil {
		return nil, err
	}
	if header.CRCError {
		c.link.Write([]byte{Cancel})
		return nil, fmt.Errorf("%w: dump header", ErrBadCRC)
	}
	if _, err := c.link.Write([]byte{Ack}); err != nil {
		return nil, err
	}
	return header, nil
}

// pageStream yields the pages of an archive dump one at a time so the
// download can terminate early and still hand back whatever was produced.
type pageStream struct {
	console   *Console
	remaining int
}

// Next returns the next validated page, or (nil, nil) when the dump is
// exhausted. Each page read is retried up to 3 times with a 1-second delay;
// the console is sent NACK after a short or corrupt page so it resends.
func (s *pageStream) Next() (*DumpPage, error) {
	if s.remaining <= 0 {
		return nil, nil
	}
	policy := retryPolicy{Tries: 3, Delay: time.Second, On: []error{ErrBadCRC, ErrBadData}}
	var page *DumpPage
	err := policy.Do(func() error {
		var err error
		page, err = s.console.readDumpPage()
		return err
	})
	if err != nil {
		return nil, err
	}
	s.remaining--
	return page, nil
}

func (c *Console) readDumpPage() (*DumpPage, error) {
	raw, err := c.link.Read(DumpPageSize, 0)
	if err != nil {
		return nil, err
	}
	if len(raw) != DumpPageSize {
		c.link.Write([]byte{Nack})
		return nil, fmt.Errorf("%w: dump page is %d bytes, want %d",
			ErrBadData, len(raw), DumpPageSize)
	}
	page, err := ParseDumpPage(raw)
	if err != nil {
		return nil, err
	}
	if page.CRCError {
		c.link.Write([]byte{Nack})
		return nil, fmt.Errorf("%w: dump page %d", ErrBadCRC, page.Index)
	}
	return page, nil
}
