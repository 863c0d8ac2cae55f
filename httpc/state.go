package httpc

import "fmt"

// SendKind discriminates SendState variants.
type SendKind int

const (
	// SendWait: nothing new yet; re-drive after the next readiness event.
	SendWait SendKind = iota
	// SendSentBody: progress, Sent carries how many body bytes went out.
	SendSentBody
	// SendWaitReqBody: the engine needs more outgoing body bytes from
	// the caller before it can make progress.
	SendWaitReqBody
	// SendReceiving: the sending phase is over; switch to CallRecv.
	SendReceiving
	// SendDone: terminal success for the send half.
	SendDone
	// SendError: terminal failure, Err carries the cause.
	SendError
)

// SendState is what a drive step reports while a call is in its
// sending phase. Exactly one variant is produced per step; SendDone
// and SendError are terminal.
type SendState struct {
	Kind SendKind
	Sent int
	Err  error
}

func sendWait() SendState         { return SendState{Kind: SendWait} }
func sendSent(n int) SendState    { return SendState{Kind: SendSentBody, Sent: n} }
func sendWaitBody() SendState     { return SendState{Kind: SendWaitReqBody} }
func sendReceiving() SendState    { return SendState{Kind: SendReceiving} }
func sendDone() SendState         { return SendState{Kind: SendDone} }
func sendErr(err error) SendState { return SendState{Kind: SendError, Err: err} }

func (s SendState) String() string {
	switch s.Kind {
	case SendWait:
		return "SendState::Wait"
	case SendSentBody:
		return fmt.Sprintf("SendState::SentBody(%d)", s.Sent)
	case SendWaitReqBody:
		return "SendState::WaitReqBody"
	case SendReceiving:
		return "SendState::Receiving"
	case SendDone:
		return "SendState::Done"
	case SendError:
		return fmt.Sprintf("SendState::Error(%v)", s.Err)
	}
	return "SendState::Unknown"
}

// RecvKind discriminates RecvState variants.
type RecvKind int

const (
	// RecvWait: nothing new yet.
	RecvWait RecvKind = iota
	// RecvResponse: headers are fully available; Resp and Body are set.
	// Non-terminal unless Body.IsEmpty().
	RecvResponse
	// RecvReceivedBody: progress, Received carries the byte count.
	RecvReceivedBody
	// RecvDoneWithBody: terminal success, BodyBytes holds the full body.
	RecvDoneWithBody
	// RecvSending: the exchange switched back to the send phase
	// (redirect or digest challenge); resume CallSend.
	RecvSending
	// RecvDone: terminal success with no (further) body.
	RecvDone
	// RecvError: terminal failure, Err carries the cause.
	RecvError
)

// RecvState is what a drive step reports while a call is in its
// receiving phase. RecvDone, RecvDoneWithBody and RecvError are
// terminal.
type RecvState struct {
	Kind      RecvKind
	Resp      *Response
	Body      ResponseBody
	Received  int
	BodyBytes []byte
	Err       error
}

func recvWait() RecvState         { return RecvState{Kind: RecvWait} }
func recvSending() RecvState      { return RecvState{Kind: RecvSending} }
func recvDone() RecvState         { return RecvState{Kind: RecvDone} }
func recvErr(err error) RecvState { return RecvState{Kind: RecvError, Err: err} }

func recvResponse(r *Response, b ResponseBody) RecvState {
	return RecvState{Kind: RecvResponse, Resp: r, Body: b}
}

func recvBody(n int) RecvState {
	return RecvState{Kind: RecvReceivedBody, Received: n}
}

func recvDoneBody(body []byte) RecvState {
	return RecvState{Kind: RecvDoneWithBody, BodyBytes: body}
}

func (s RecvState) String() string {
	switch s.Kind {
	case RecvWait:
		return "RecvState::Wait"
	case RecvResponse:
		return fmt.Sprintf("RecvState::Response(%d, %s)", s.Resp.Status, s.Body)
	case RecvReceivedBody:
		return fmt.Sprintf("RecvState::ReceivedBody(%d)", s.Received)
	case RecvDoneWithBody:
		return fmt.Sprintf("RecvState::DoneWithBody(%d bytes)", len(s.BodyBytes))
	case RecvSending:
		return "RecvState::Sending"
	case RecvDone:
		return "RecvState::Done"
	case RecvError:
		return fmt.Sprintf("RecvState::Error(%v)", s.Err)
	}
	return "RecvState::Unknown"
}

// Terminal reports whether no further driving is valid after s.
func (s SendState) Terminal() bool {
	return s.Kind == SendDone || s.Kind == SendError
}

// Terminal reports whether no further driving is valid after s.
func (s RecvState) Terminal() bool {
	return s.Kind == RecvDone || s.Kind == RecvDoneWithBody || s.Kind == RecvError
}
