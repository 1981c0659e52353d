package imaging

import (
	"bytes"
	"fmt"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// retagPatientID rewrites the instance's PatientID (0010,0020) so the PACS
// indexes it under the local patient uuid.
func retagPatientID(data []byte, patientID string) ([]byte, error) {
	dataset, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return nil, fmt.Errorf("parse dicom instance: %w", err)
	}

	element, err := dicom.NewElement(tag.PatientID, []string{patientID})
	if err != nil {
		return nil, fmt.Errorf("build patient id element: %w", err)
	}

	replaced := false
	for i, el := range dataset.Elements {
		if el.Tag == tag.PatientID {
			dataset.Elements[i] = element
			replaced = true
			break
		}
	}
	if !replaced {
		dataset.Elements = append(dataset.Elements, element)
	}

	var buf bytes.Buffer
	if err := dicom.Write(&buf, dataset, dicom.SkipVRVerification()); err != nil {
		return nil, fmt.Errorf("encode dicom instance: %w", err)
	}
	return buf.Bytes(), nil
}
