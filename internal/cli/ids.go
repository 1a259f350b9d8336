package cli

import (
	"fmt"
	"strconv"
)

// ParseIDs converts positional arguments to positive ids.
func ParseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func ParseID(arg string) (int, error) {
	ids, err := ParseIDs([]string{arg})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}
