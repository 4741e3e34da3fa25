package airpose

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/swdee/go-airpose/body"
)

// DefaultJointNames returns the body joint names in model order
func DefaultJointNames() []string {
	return append([]string(nil), body.JointNames[:]...)
}

// LoadJointNames reads joint names from the given text file, one name per
// line in model order.  Blank lines are skipped.
func LoadJointNames(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, errors.Wrap(err, "error opening file")
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var names []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		names = append(names, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading file")
	}

	if len(names) != body.NumJoints {
		return nil, errors.Errorf("%s has %d joint names, want %d", file, len(names), body.NumJoints)
	}

	return names, nil
}
