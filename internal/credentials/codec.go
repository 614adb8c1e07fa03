package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	recordFormatVersionConstant         = 1
	unsupportedVersionTemplateConstant  = "%w: %d"
	unsupportedVersionMessageConstant   = "unsupported credential record version"
	decodeRecordErrorTemplateConstant   = "failed to decode credential record: %w"
	encodeRecordErrorTemplateConstant   = "failed to encode credential record: %w"
	duplicateRequestKeyTemplateConstant = "%w: %q"
	duplicateRequestKeyMessageConstant  = "duplicate credential request key"
)

var (
	// ErrUnsupportedRecordVersion indicates a segment written in an unknown record format.
	ErrUnsupportedRecordVersion = errors.New(unsupportedVersionMessageConstant)
	// ErrDuplicateRequestKey indicates a record listing the same request key twice.
	ErrDuplicateRequestKey = errors.New(duplicateRequestKeyMessageConstant)
)

type credentialRecord struct {
	Version     int               `yaml:"version"`
	Credentials []credentialEntry `yaml:"credentials"`
}

type credentialEntry struct {
	Request string `yaml:"request"`
	Secret  string `yaml:"secret"`
}

// encodeSnapshot serializes the mapping as a versioned YAML record with entries sorted by request key.
func encodeSnapshot(snapshot map[string]string) ([]byte, error) {
	requestKeys := make([]string, 0, len(snapshot))
	for requestKey := range snapshot {
		requestKeys = append(requestKeys, requestKey)
	}
	sort.Strings(requestKeys)

	record := credentialRecord{Version: recordFormatVersionConstant, Credentials: make([]credentialEntry, 0, len(requestKeys))}
	for _, requestKey := range requestKeys {
		record.Credentials = append(record.Credentials, credentialEntry{Request: requestKey, Secret: snapshot[requestKey]})
	}

	encoded, encodeError := yaml.Marshal(record)
	if encodeError != nil {
		return nil, fmt.Errorf(encodeRecordErrorTemplateConstant, encodeError)
	}
	return encoded, nil
}

// decodeSnapshot parses a record produced by encodeSnapshot. Empty content decodes to an empty mapping.
func decodeSnapshot(encoded []byte) (map[string]string, error) {
	snapshot := make(map[string]string)
	if len(bytes.TrimSpace(encoded)) == 0 {
		return snapshot, nil
	}

	var record credentialRecord
	if decodeError := yaml.Unmarshal(encoded, &record); decodeError != nil {
		return nil, fmt.Errorf(decodeRecordErrorTemplateConstant, decodeError)
	}
	if record.Version != recordFormatVersionConstant {
		return nil, fmt.Errorf(unsupportedVersionTemplateConstant, ErrUnsupportedRecordVersion, record.Version)
	}

	for _, entry := range record.Credentials {
		if _, duplicate := snapshot[entry.Request]; duplicate {
			return nil, fmt.Errorf(duplicateRequestKeyTemplateConstant, ErrDuplicateRequestKey, entry.Request)
		}
		snapshot[entry.Request] = entry.Secret
	}
	return snapshot, nil
}
