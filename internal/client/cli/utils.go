package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errUsage = errors.New("product id is required")

func parseProductID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", args[0])
	}
	return id, nil
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func yes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
