package nbd

// Export describes a single volume served over NBD. It is exchanged
// bit-for-bit between client and server during the handshake and does not
// change for the lifetime of the resulting Session, except that
// Session.Resize updates its Size.
type Export struct {
	// Name identifies the export for NBD_OPT_EXPORT_NAME / NBD_OPT_LIST.
	// It is not sent as part of the transmission-phase flags and plays no
	// role once a Session has started.
	Name string

	// Size is the byte length of the volume.
	Size uint64

	// ReadOnly tells the client that writes must be rejected.
	ReadOnly bool
	// Resizeable tells the client that NBD_CMD_RESIZE is supported.
	Resizeable bool
	// Rotational hints the client's elevator scheduling.
	Rotational bool
	// SendTrim tells the client that NBD_CMD_TRIM is supported.
	SendTrim bool
	// SendFlush tells the client that NBD_CMD_FLUSH may be sent. The
	// server always sets this unless ReadOnly is set (a read-only export
	// has nothing to flush).
	SendFlush bool
}

// transmissionFlags computes the u16 transmission flags advertised by the
// server for e, per the table in the handshake's EXPORT_NAME handling.
func (e Export) transmissionFlags() uint16 {
	flags := uint16(flagHasFlags)
	if e.ReadOnly {
		flags |= flagReadOnly
	} else {
		flags |= flagSendFlush
	}
	if e.Resizeable {
		flags |= flagSendResize
	}
	if e.Rotational {
		flags |= flagRotational
	}
	if e.SendTrim {
		flags |= flagSendTrim
	}
	return flags
}

// exportFromFlags builds an Export of the given size whose boolean fields
// are decoded from a transmission-phase flags word, as seen by the client.
func exportFromFlags(size uint64, flags uint16) Export {
	e := Export{Size: size}
	if flags&flagHasFlags == 0 {
		return e
	}
	e.ReadOnly = flags&flagReadOnly != 0
	e.Resizeable = flags&flagSendResize != 0
	e.Rotational = flags&flagRotational != 0
	e.SendTrim = flags&flagSendTrim != 0
	e.SendFlush = flags&flagSendFlush != 0
	return e
}
