package rsyncdelta

// CommandKind identifies the three command types a delta stream is built
// from (spec §4.7).
type CommandKind int

const (
	// CmdEnd marks the end of a delta stream. It carries no operands.
	CmdEnd CommandKind = iota
	// CmdLiteral introduces Length bytes of literal data, immediately
	// following the command in the stream.
	CmdLiteral
	// CmdCopy instructs the patcher to copy Length bytes from the basis
	// stream starting at Offset.
	CmdCopy
)

// Command is one decoded (or about-to-be-encoded) delta stream command.
type Command struct {
	Kind   CommandKind
	Offset uint64 // valid for CmdCopy
	Length uint64 // literal byte count, or copy length
}

const (
	opEnd            = 0x00
	opLiteralShortLo = 0x01
	opLiteralShortHi = 0x40
	opLiteralLong1   = 0x41
	opLiteralLong2   = 0x42
	opLiteralLong4   = 0x43
	opLiteralLong8   = 0x44
	opCopyLo         = 0x45
	opCopyHi         = 0x54
)

// widths enumerates the operand widths, in the order the copy-opcode space
// enumerates them: 1, 2, 4, or 8 bytes.
var widths = [4]int{1, 2, 4, 8}

// widthIndex returns the index into widths for a byte width, or -1.
func widthIndex(w int) int {
	for i, v := range widths {
		if v == w {
			return i
		}
	}
	return -1
}

// widthFor returns the smallest width in {1, 2, 4, 8} bytes that v fits in.
func widthFor(v uint64) int {
	switch {
	case v <= 0xff:
		return 1
	case v <= 0xffff:
		return 2
	case v <= 0xffffffff:
		return 4
	default:
		return 8
	}
}

// encodeEnd appends an END command to dst.
func encodeEnd(dst []byte) []byte {
	return append(dst, opEnd)
}

// encodeLiteral appends a LITERAL command (opcode plus, for the long form,
// a big-endian length operand) to dst. It always picks the smallest
// encoding: the one-byte short form when 1 <= length <= 64, otherwise the
// narrowest long form (spec §4.7).
func encodeLiteral(dst []byte, length uint64) []byte {
	if length >= 1 && length <= 64 {
		return append(dst, byte(length))
	}
	w := widthFor(length)
	dst = append(dst, byte(opLiteralLong1+widthIndex(w)))
	return appendBE(dst, length, w)
}

// encodeCopy appends a COPY command (opcode plus big-endian offset and
// length operands, each independently sized to its narrowest width) to dst.
func encodeCopy(dst []byte, offset, length uint64) []byte {
	ow, lw := widthFor(offset), widthFor(length)
	opcode := opCopyLo + widthIndex(ow)*4 + widthIndex(lw)
	dst = append(dst, byte(opcode))
	dst = appendBE(dst, offset, ow)
	dst = appendBE(dst, length, lw)
	return dst
}

// commandDecoder incrementally decodes one Command at a time from a stream
// of Buffers, coalescing the opcode byte and its operand bytes across
// however many Iter calls it takes to gather them (spec §4.3's scan-buffer
// pattern, applied to the wire codec).
type commandDecoder struct {
	haveOpcode bool
	opcode     byte
	operand    [16]byte
	operandLen int
	filled     int
}

// step attempts to decode the next command from b. It returns (cmd, true)
// once a full command has been read, or (Command{}, false) if more input is
// needed (the caller should return ResultBlocked if !b.EOFIn, or treat it as
// ResultInputEnded/ResultCorrupt depending on context if b.EOFIn). A nil
// error with ok==false and no corrupt condition simply means "call again
// with more input."
func (d *commandDecoder) step(b *Buffers) (cmd Command, ok bool, err error) {
	if !d.haveOpcode {
		if len(b.NextIn) == 0 {
			return Command{}, false, nil
		}
		d.opcode = b.NextIn[0]
		b.NextIn = b.NextIn[1:]
		d.haveOpcode = true
		d.operandLen = operandWidthFor(d.opcode)
		d.filled = 0
		if d.operandLen < 0 {
			return Command{}, false, newError(ResultCorrupt, "codec: unrecognized opcode", nil)
		}
	}

	if d.filled < d.operandLen {
		d.filled = fillBuffer(b, d.operand[:d.operandLen], d.filled)
		if d.filled < d.operandLen {
			return Command{}, false, nil
		}
	}

	cmd, err = decodeCommand(d.opcode, d.operand[:d.operandLen])
	d.haveOpcode = false
	d.filled = 0
	return cmd, err == nil, err
}

// operandWidthFor returns the number of operand bytes that follow opcode, or
// -1 if opcode is not a recognized command.
func operandWidthFor(opcode byte) int {
	switch {
	case opcode == opEnd:
		return 0
	case opcode >= opLiteralShortLo && opcode <= opLiteralShortHi:
		return 0
	case opcode >= opLiteralLong1 && opcode <= opLiteralLong8:
		return widths[int(opcode)-opLiteralLong1]
	case opcode >= opCopyLo && opcode <= opCopyHi:
		combo := int(opcode) - opCopyLo
		return widths[combo/4] + widths[combo%4]
	default:
		return -1
	}
}

// decodeCommand interprets a fully-read opcode and operand as a Command.
func decodeCommand(opcode byte, operand []byte) (Command, error) {
	switch {
	case opcode == opEnd:
		return Command{Kind: CmdEnd}, nil
	case opcode >= opLiteralShortLo && opcode <= opLiteralShortHi:
		return Command{Kind: CmdLiteral, Length: uint64(opcode)}, nil
	case opcode >= opLiteralLong1 && opcode <= opLiteralLong8:
		w := widths[int(opcode)-opLiteralLong1]
		return Command{Kind: CmdLiteral, Length: be(operand[:w])}, nil
	case opcode >= opCopyLo && opcode <= opCopyHi:
		combo := int(opcode) - opCopyLo
		ow, lw := widths[combo/4], widths[combo%4]
		return Command{
			Kind:   CmdCopy,
			Offset: be(operand[:ow]),
			Length: be(operand[ow : ow+lw]),
		}, nil
	default:
		return Command{}, newError(ResultCorrupt, "codec: unrecognized opcode", nil)
	}
}

// be decodes a big-endian unsigned integer of 1, 2, 4, or 8 bytes.
func be(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
