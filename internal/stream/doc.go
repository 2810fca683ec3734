// Package stream turns a container engine's raw build output into a lazy
// sequence of decoded progress records.
//
// The engine writes one JSON object per record, terminated by CRLF, but the
// transport delivers the bytes in arbitrary chunks. Reassemble keeps an
// accumulation buffer for the lifetime of one sequence, emits every record
// whose delimiter has arrived and holds any trailing partial record until the
// next chunk. Records that are empty or do not decode as a JSON object are
// dropped.
//
// Both Chunks and Reassemble are pull-based: nothing is read from the
// underlying reader until the consumer asks for the next element, and
// breaking out of the loop stops all further reads.
//
//	for evt, err := range stream.Reassemble(stream.Chunks(body, 0)) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(evt["stream"])
//	}
package stream
