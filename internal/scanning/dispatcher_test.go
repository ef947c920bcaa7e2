package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeRecognizer struct {
	text          string
	err           error
	hasCredential bool

	calls      int
	lang       string
	credential string
	closed     bool
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ *Image, lang string, credential string, progress ProgressFunc) (string, error) {
	f.calls++
	f.lang = lang
	f.credential = credential
	report(progress, 0.5, "working")
	return f.text, f.err
}

func (f *fakeRecognizer) HasCredential() bool {
	return f.hasCredential
}

func (f *fakeRecognizer) Close() error {
	f.closed = true
	return nil
}

type fakeConnectivity struct {
	online bool
	calls  int
}

func (f *fakeConnectivity) Online(context.Context) bool {
	f.calls++
	return f.online
}

var _ = Describe("Dispatcher", func() {
	var (
		remote     *fakeRecognizer
		local      *fakeRecognizer
		probe      *fakeConnectivity
		dispatcher *Dispatcher
		req        Request
		progress   []string
		outcome    *Outcome
		err        error
	)

	BeforeEach(func() {
		remote = &fakeRecognizer{text: "remote text", hasCredential: true}
		local = &fakeRecognizer{text: "local text"}
		probe = &fakeConnectivity{online: true}
		progress = nil
		req = Request{
			Source: Source{Data: pngBytes(), ContentType: "image/png"},
			Mode:   ModeAuto,
			ScanID: "scan-1",
			OnProgress: func(_ float64, status string) {
				progress = append(progress, status)
			},
		}
	})

	JustBeforeEach(func() {
		dispatcher = NewDispatcher(remote, local, probe, discardLogger())
		outcome, err = dispatcher.Recognize(context.Background(), req)
	})

	stageOf := func(err error) Stage {
		var scanErr *Error
		Expect(errors.As(err, &scanErr)).To(BeTrue())
		return scanErr.Stage
	}

	When("the mode is auto", func() {
		Context("with a credential and connectivity", func() {
			It("uses the remote engine", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome).To(Equal(&Outcome{Text: "remote text", Engine: EngineRemote}))
				Expect(local.calls).To(BeZero())
			})

			It("forwards progress", func() {
				Expect(progress).To(Equal([]string{"working"}))
			})
		})

		Context("without a credential", func() {
			BeforeEach(func() {
				remote.hasCredential = false
			})

			It("goes directly to the local engine", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Engine).To(Equal(EngineLocal))
				Expect(remote.calls).To(BeZero())
				Expect(probe.calls).To(BeZero())
			})
		})

		Context("with a credential passed on the request", func() {
			BeforeEach(func() {
				remote.hasCredential = false
				req.Credential = "per-call"
			})

			It("hands the credential to the remote engine", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Engine).To(Equal(EngineRemote))
				Expect(remote.credential).To(Equal("per-call"))
			})
		})

		Context("while the host is offline", func() {
			BeforeEach(func() {
				probe.online = false
			})

			It("uses the local engine", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome).To(Equal(&Outcome{Text: "local text", Engine: EngineLocal}))
				Expect(remote.calls).To(BeZero())
				Expect(probe.calls).To(Equal(1))
			})
		})

		Context("when the remote engine fails", func() {
			BeforeEach(func() {
				remote.err = errors.New("status 500")
			})

			It("falls back to the local engine", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome).To(Equal(&Outcome{Text: "local text", Engine: EngineLocal}))
				Expect(remote.calls).To(Equal(1))
				Expect(local.calls).To(Equal(1))
			})
		})

		Context("when both engines fail", func() {
			BeforeEach(func() {
				remote.err = errors.New("status 500")
				local.err = errors.New("no traineddata")
			})

			It("reports the local failure", func() {
				Expect(outcome).To(BeNil())
				Expect(stageOf(err)).To(Equal(StageLocal))
				Expect(err).To(MatchError(ContainSubstring("no traineddata")))
			})
		})
	})

	When("the mode is offline", func() {
		BeforeEach(func() {
			req.Mode = ModeOffline
		})

		It("never touches the remote engine", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Engine).To(Equal(EngineLocal))
			Expect(remote.calls).To(BeZero())
			Expect(probe.calls).To(BeZero())
		})

		Context("when the local engine fails", func() {
			BeforeEach(func() {
				local.err = errors.New("engine crashed")
			})

			It("returns a local stage error", func() {
				Expect(stageOf(err)).To(Equal(StageLocal))
			})
		})
	})

	When("the mode is online", func() {
		BeforeEach(func() {
			req.Mode = ModeOnline
			remote.hasCredential = false
			probe.online = false
		})

		It("tries the remote engine without checking credential or connectivity", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Engine).To(Equal(EngineRemote))
			Expect(probe.calls).To(BeZero())
		})

		Context("when the remote engine fails", func() {
			BeforeEach(func() {
				remote.err = errors.New("processing failed")
			})

			It("propagates the failure without falling back", func() {
				Expect(outcome).To(BeNil())
				Expect(stageOf(err)).To(Equal(StageRemote))
				Expect(local.calls).To(BeZero())
			})
		})

		Context("without a remote engine", func() {
			JustBeforeEach(func() {
				dispatcher = NewDispatcher(nil, local, probe, discardLogger())
				outcome, err = dispatcher.Recognize(context.Background(), req)
			})

			It("returns a remote stage error", func() {
				Expect(stageOf(err)).To(Equal(StageRemote))
				Expect(local.calls).To(BeZero())
			})
		})
	})

	When("the source cannot be rasterized", func() {
		BeforeEach(func() {
			req.Source = Source{Data: []byte("plain"), ContentType: "text/plain"}
		})

		It("fails before any engine runs", func() {
			Expect(stageOf(err)).To(Equal(StageRasterize))
			Expect(remote.calls).To(BeZero())
			Expect(local.calls).To(BeZero())
		})
	})

	When("the UI language is Italian", func() {
		BeforeEach(func() {
			req.UILanguage = "it"
		})

		It("passes it to the engine", func() {
			Expect(remote.lang).To(Equal("it"))
		})
	})

	When("the UI language is unknown", func() {
		BeforeEach(func() {
			req.UILanguage = "fr"
		})

		It("uses German", func() {
			Expect(remote.lang).To(Equal("de"))
		})
	})

	Describe("Close", func() {
		It("closes both engines", func() {
			Expect(dispatcher.Close()).To(Succeed())
			Expect(remote.closed).To(BeTrue())
			Expect(local.closed).To(BeTrue())
		})
	})
})

var _ = Describe("engine selection", func() {
	DescribeTable("transitions",
		func(from state, on event, to state) {
			got, err := next(from, on)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(to))
		},
		Entry("start remote", stateNotStarted, eventRemote, stateTryingRemote),
		Entry("start local", stateNotStarted, eventLocal, stateTryingLocal),
		Entry("remote succeeded", stateTryingRemote, eventSucceeded, stateDone),
		Entry("remote fallback", stateTryingRemote, eventFallback, stateTryingLocal),
		Entry("remote aborted", stateTryingRemote, eventAbort, stateFailed),
		Entry("local succeeded", stateTryingLocal, eventSucceeded, stateDone),
		Entry("local aborted", stateTryingLocal, eventAbort, stateFailed),
	)

	It("rejects undeclared transitions", func() {
		_, err := next(stateTryingLocal, eventFallback)
		Expect(err).To(MatchError("no transition from trying-local on fallback"))
		_, err = next(stateDone, eventRemote)
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("policies",
		func(mode Mode, expected Policy) {
			Expect(PolicyFor(mode)).To(Equal(expected))
		},
		Entry("auto", ModeAuto, Policy{AllowRemote: true, Fallback: true}),
		Entry("offline", ModeOffline, Policy{}),
		Entry("online", ModeOnline, Policy{ForceRemote: true}),
		Entry("unknown", Mode("sideways"), Policy{AllowRemote: true, Fallback: true}),
	)
})

var _ = Describe("ParseMode", func() {
	It("accepts the known modes", func() {
		Expect(ParseMode("")).To(Equal(ModeAuto))
		Expect(ParseMode("Offline")).To(Equal(ModeOffline))
		Expect(ParseMode(" online ")).To(Equal(ModeOnline))
	})

	It("rejects anything else", func() {
		_, err := ParseMode("remote")
		Expect(err).To(MatchError(ContainSubstring("unknown recognition mode")))
	})
})
