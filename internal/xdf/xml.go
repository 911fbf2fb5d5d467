package xdf

import (
	"fmt"
	"time"
)

// BuildHeaderXML renders the stream-header XML required by the recording
// contract: name, type, channel_count, nominal_srate,
// channel_format="double64", created_at.
func BuildHeaderXML(name, streamType string, channelCount int, nominalSrateHz float64, createdAt time.Time) string {
	return fmt.Sprintf(
		"<info><name>%s</name><type>%s</type><channel_count>%d</channel_count>"+
			"<nominal_srate>%g</nominal_srate><channel_format>double64</channel_format>"+
			"<created_at>%s</created_at></info>",
		name, streamType, channelCount, nominalSrateHz, createdAt.UTC().Format(time.RFC3339))
}

// BuildFooterXML renders the stream-footer XML: first_timestamp=0,
// last_timestamp=durationSeconds, sample_count, and a single
// (time=0, value=0) clock-offset entry.
func BuildFooterXML(durationSeconds float64, sampleCount int64) string {
	return fmt.Sprintf(
		"<info><first_timestamp>0</first_timestamp><last_timestamp>%g</last_timestamp>"+
			"<sample_count>%d</sample_count>"+
			"<clock_offsets><offset><time>0</time><value>0</value></offset></clock_offsets></info>",
		durationSeconds, sampleCount)
}
