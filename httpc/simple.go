package httpc

// SimpleCall wraps a Call with the driving bookkeeping most callers
// want: it flips between the two phases automatically and buffers the
// response body in the engine.
type SimpleCall struct {
	call    Call
	resp    *Response
	body    []byte
	sending bool
	done    bool
	err     error
}

// Simple wraps the call for automatic driving.
func (c Call) Simple() SimpleCall {
	return SimpleCall{call: c, sending: true}
}

// Perform advances the exchange as far as possible without waiting.
// It returns true once the exchange is finished; the error, if any,
// is also remembered and re-returned on later calls.
func (s *SimpleCall) Perform(h *Httpc) (bool, error) {
	if s.done {
		return true, s.err
	}
	for {
		if s.sending {
			st := h.CallSend(&s.call, nil)
			switch st.Kind {
			case SendError:
				return s.finish(st.Err)
			case SendReceiving:
				s.sending = false
			case SendDone:
				return s.finish(nil)
			case SendSentBody:
				// keep going
			case SendWaitReqBody:
				// A simple call always carries its full body up front.
				return s.finish(ErrProtocol)
			case SendWait:
				return false, nil
			}
			continue
		}
		st := h.CallRecv(&s.call, nil)
		switch st.Kind {
		case RecvError:
			return s.finish(st.Err)
		case RecvResponse:
			s.resp = st.Resp
		case RecvReceivedBody:
			// keep going
		case RecvDoneWithBody:
			s.body = st.BodyBytes
			return s.finish(nil)
		case RecvDone:
			return s.finish(nil)
		case RecvSending:
			s.sending = true
		case RecvWait:
			return false, nil
		}
	}
}

func (s *SimpleCall) finish(err error) (bool, error) {
	s.done = true
	s.err = err
	return true, err
}

// Abort cancels the underlying call.
func (s *SimpleCall) Abort(h *Httpc) {
	h.Abort(&s.call)
	s.done = true
	if s.err == nil {
		s.err = ErrTimeout
	}
}

// Response returns the response once headers have arrived, else nil.
func (s *SimpleCall) Response() *Response {
	return s.resp
}

// Body returns the buffered response body.
func (s *SimpleCall) Body() []byte {
	return s.body
}
