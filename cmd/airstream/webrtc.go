package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/config"
	"github.com/junsooki/airstream/internal/peer"
	"github.com/junsooki/airstream/internal/signaling"
)

// runWebRTCServer registers as a host on the relay and streams to the most
// recent viewer that sends an offer.
func runWebRTCServer(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	src, err := openSource(cfg, log)
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		host     *peer.Host
		stopPrev context.CancelFunc = func() {}
		lastDone chan struct{}
		sessions sync.WaitGroup
	)
	current := func() *peer.Host {
		mu.Lock()
		defer mu.Unlock()
		return host
	}

	var sig *signaling.Client
	sig = signaling.NewClient(cfg.SignalingURL(), cfg.Room, signaling.RoleHost, signaling.Handler{
		OnRegistered: func() {
			log.WithField("room", cfg.Room).Info("host ready, share this ID with viewers")
		},
		OnOffer: func(from string, payload json.RawMessage) {
			log.WithField("viewer", from).Info("offer received")
			h, err := peer.NewHost(sig, log)
			if err != nil {
				log.WithError(err).Error("create host peer")
				return
			}

			mu.Lock()
			stopPrev()
			if host != nil {
				host.Close()
			}
			host = h
			sctx, cancel := context.WithCancel(ctx)
			stopPrev = cancel
			prevDone, done := lastDone, make(chan struct{})
			lastDone = done
			mu.Unlock()

			if err := h.HandleOffer(from, payload); err != nil {
				log.WithError(err).Error("handle offer")
				close(done)
				return
			}

			sessions.Add(1)
			go func() {
				defer sessions.Done()
				defer close(done)
				// The capturer and injector are shared; one session at a time.
				if prevDone != nil {
					<-prevDone
				}
				select {
				case <-h.Open():
				case <-h.Failed():
					return
				case <-sctx.Done():
					return
				}
				go func() {
					select {
					case <-h.Failed():
						cancel()
					case <-sctx.Done():
					}
				}()
				log.WithField("viewer", from).Info("streaming over webrtc")
				if err := serve(sctx, h.Socket(), src, cfg, log.WithField("viewer", from)); err != nil {
					log.WithError(err).Warn("session ended")
				}
			}()
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if h := current(); h != nil && h.Viewer() == from {
				if err := h.HandleICECandidate(payload); err != nil {
					log.WithError(err).Warn("handle ICE candidate")
				}
			}
		},
	}, log)

	if err := sig.Connect(ctx); err != nil {
		return err
	}
	defer sig.Close()

	select {
	case <-ctx.Done():
	case <-sig.Done():
		log.Warn("signaling relay connection lost")
	}

	mu.Lock()
	stopPrev()
	if host != nil {
		host.Close()
	}
	mu.Unlock()
	sessions.Wait()
	return nil
}

// runWebRTCClient offers to the host named by -room and shows its stream.
func runWebRTCClient(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	v := newViewer(cfg, log)

	var (
		mu sync.Mutex
		vp *peer.Viewer
	)
	current := func() *peer.Viewer {
		mu.Lock()
		defer mu.Unlock()
		return vp
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sig *signaling.Client
	sig = signaling.NewClient(cfg.SignalingURL(), "", signaling.RoleViewer, signaling.Handler{
		OnRegistered: func() {
			p, err := peer.NewViewer(sig, cfg.Room, log)
			if err != nil {
				log.WithError(err).Error("create viewer peer")
				cancel()
				return
			}
			mu.Lock()
			vp = p
			mu.Unlock()

			go func() {
				select {
				case <-p.Open():
					if err := v.attach(p.Socket()); err != nil {
						log.WithError(err).Error("attach stream")
						cancel()
					}
				case <-p.Failed():
					log.Error("peer connection failed")
					cancel()
				case <-ctx.Done():
				}
			}()

			if err := p.Connect(); err != nil {
				log.WithError(err).Error("send offer")
				cancel()
			}
		},
		OnAnswer: func(from string, payload json.RawMessage) {
			if p := current(); p != nil {
				if err := p.HandleAnswer(payload); err != nil {
					log.WithError(err).Error("handle answer")
				}
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if p := current(); p != nil {
				if err := p.HandleICECandidate(payload); err != nil {
					log.WithError(err).Warn("handle ICE candidate")
				}
			}
		},
		OnHostDisconnected: func(hostID string) {
			if hostID == cfg.Room {
				log.WithField("room", hostID).Warn("host disconnected")
				cancel()
			}
		},
		OnError: func(msg string) {
			log.WithField("message", msg).Error("signaling error")
			cancel()
		},
	}, log)

	if err := sig.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.SignalingURL(), err)
	}
	defer sig.Close()

	err := v.run(ctx)
	if p := current(); p != nil {
		p.Close()
	}
	return err
}
