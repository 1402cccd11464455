package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// tree reader
	SynUnexpectedToken Code = 2001
	SynBadForm         Code = 2002

	// analysis
	SemaUnresolvedSymbol Code = 3001

	// io
	IOLoadFileError Code = 4001

	// internal
	InternalFault      Code = 9001
	InternalValidation Code = 9002
)

var codeDescription = map[Code]string{
	UnknownCode:          "Unknown error",
	SynUnexpectedToken:   "Unexpected token",
	SynBadForm:           "Malformed form",
	SemaUnresolvedSymbol: "Unresolved symbol",
	IOLoadFileError:      "I/O load file error",
	InternalFault:        "Internal consistency fault",
	InternalValidation:   "IR validation failed",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("INT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
