package config

import (
	"fmt"
	"strings"
)

// strftime tokens accepted in statement configs, mapped to Go reference-time
// layout fragments. Existing config sets use the %-style tokens; anything
// else a bank export realistically carries can be added here.
var strftimeTokens = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'e': "_2",
	'%': "%",
}

// TranslateDateFormat converts a strftime-style format ("%d/%m/%y") into a
// Go layout ("02/01/06"). Formats without % tokens are taken to already be
// Go layouts and pass through untouched.
func TranslateDateFormat(format string) (string, error) {
	if !strings.ContainsRune(format, '%') {
		return format, nil
	}

	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return "", fmt.Errorf("trailing %% in date format %q", format)
		}
		frag, ok := strftimeTokens[format[i]]
		if !ok {
			return "", fmt.Errorf("unsupported token %%%c in date format %q", format[i], format)
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}
