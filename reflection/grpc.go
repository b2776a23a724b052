package reflection

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	rpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// GRPCSource asks a server for descriptors using server reflection v1. Files
// are fetched on demand and cached for the life of the source.
type GRPCSource struct {
	client  rpb.ServerReflectionClient
	conn    *grpc.ClientConn // set when the source owns the connection
	logger  *slog.Logger
	backoff func() backoff.BackOff

	mu     sync.Mutex
	protos map[string]*descriptorpb.FileDescriptorProto
	reg    registry
}

var _ Source = (*GRPCSource)(nil)

type grpcOptions struct {
	plaintext   bool
	logger      *slog.Logger
	backoff     func() backoff.BackOff
	dialOptions []grpc.DialOption
}

// GRPCOption configures a GRPCSource.
type GRPCOption func(*grpcOptions)

// WithPlaintext disables TLS when dialing.
func WithPlaintext(plaintext bool) GRPCOption {
	return func(o *grpcOptions) { o.plaintext = plaintext }
}

// WithLogger sets the logger for retries and fetches.
func WithLogger(l *slog.Logger) GRPCOption {
	return func(o *grpcOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBackOff sets the retry policy used when the server is unavailable.
func WithBackOff(fn func() backoff.BackOff) GRPCOption {
	return func(o *grpcOptions) {
		if fn != nil {
			o.backoff = fn
		}
	}
}

// WithDialOptions appends dial options, after the transport credentials.
func WithDialOptions(opts ...grpc.DialOption) GRPCOption {
	return func(o *grpcOptions) { o.dialOptions = append(o.dialOptions, opts...) }
}

// DefaultBackOff retries for up to ten seconds.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return b
}

func newGRPCOptions(opts []GRPCOption) grpcOptions {
	o := grpcOptions{
		logger:  slog.New(slog.DiscardHandler),
		backoff: DefaultBackOff,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Dial creates a source connected to target. The connection is closed by
// Close.
func Dial(target string, opts ...GRPCOption) (*GRPCSource, error) {
	o := newGRPCOptions(opts)
	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	if o.plaintext {
		creds = insecure.NewCredentials()
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, o.dialOptions...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	src := newGRPCSource(conn, o)
	src.conn = conn
	return src, nil
}

// NewGRPCSource uses an existing connection, which Close leaves open.
func NewGRPCSource(cc grpc.ClientConnInterface, opts ...GRPCOption) *GRPCSource {
	return newGRPCSource(cc, newGRPCOptions(opts))
}

func newGRPCSource(cc grpc.ClientConnInterface, o grpcOptions) *GRPCSource {
	return &GRPCSource{
		client:  rpb.NewServerReflectionClient(cc),
		logger:  o.logger,
		backoff: o.backoff,
		protos:  make(map[string]*descriptorpb.FileDescriptorProto),
	}
}

func (s *GRPCSource) Services(ctx context.Context) ([]string, error) {
	resp, err := s.exchange(ctx, &rpb.ServerReflectionRequest{
		MessageRequest: &rpb.ServerReflectionRequest_ListServices{ListServices: "*"},
	})
	if err != nil {
		return nil, err
	}
	names := lo.Map(resp.GetListServicesResponse().GetService(), func(svc *rpb.ServiceResponse, _ int) string {
		return svc.GetName()
	})
	names = lo.Reject(names, func(name string, _ int) bool {
		return name == "grpc.reflection.v1.ServerReflection" || name == "grpc.reflection.v1alpha.ServerReflection"
	})
	sort.Strings(names)
	return names, nil
}

func (s *GRPCSource) ResolveMessage(ctx context.Context, fullName string) (protoreflect.MessageDescriptor, error) {
	if err := s.load(ctx, fullName); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.message(fullName)
}

func (s *GRPCSource) ResolveMethod(ctx context.Context, method string) (protoreflect.MethodDescriptor, error) {
	svc, _, err := SplitMethod(method)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx, svc); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.method(method)
}

func (s *GRPCSource) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// load fetches the file defining symbol and any imports the server did not
// send along, then relinks the cache.
func (s *GRPCSource) load(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reg.files != nil {
		if _, err := s.reg.files.FindDescriptorByName(protoreflect.FullName(symbol)); err == nil {
			return nil
		}
	}

	resp, err := s.exchange(ctx, &rpb.ServerReflectionRequest{
		MessageRequest: &rpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: symbol},
	})
	if err != nil {
		return err
	}
	if err := s.add(resp); err != nil {
		return err
	}

	for missing := s.missingImports(); len(missing) > 0; missing = s.missingImports() {
		for _, name := range missing {
			s.logger.DebugContext(ctx, "fetching import", "file", name)
			resp, err := s.exchange(ctx, &rpb.ServerReflectionRequest{
				MessageRequest: &rpb.ServerReflectionRequest_FileByFilename{FileByFilename: name},
			})
			if err != nil {
				return err
			}
			if err := s.add(resp); err != nil {
				return err
			}
			if _, ok := s.protos[name]; !ok {
				return fmt.Errorf("%w: server did not return %s", ErrSymbolNotFound, name)
			}
		}
	}

	files, err := buildFiles(s.protos)
	if err != nil {
		return err
	}
	s.reg = registry{files: files}
	return nil
}

func (s *GRPCSource) add(resp *rpb.ServerReflectionResponse) error {
	for _, raw := range resp.GetFileDescriptorResponse().GetFileDescriptorProto() {
		fdp := &descriptorpb.FileDescriptorProto{}
		if err := proto.Unmarshal(raw, fdp); err != nil {
			return fmt.Errorf("decode file descriptor: %w", err)
		}
		if _, seen := s.protos[fdp.GetName()]; !seen {
			s.protos[fdp.GetName()] = fdp
		}
	}
	return nil
}

// missingImports lists imports neither fetched nor linked into the binary.
func (s *GRPCSource) missingImports() []string {
	var missing []string
	for _, fdp := range s.protos {
		for _, dep := range fdp.GetDependency() {
			if _, ok := s.protos[dep]; ok {
				continue
			}
			if _, err := protoregistry.GlobalFiles.FindFileByPath(dep); err == nil {
				continue
			}
			missing = append(missing, dep)
		}
	}
	missing = lo.Uniq(missing)
	sort.Strings(missing)
	return missing
}

// exchange sends one request on a fresh stream. Unavailable servers are
// retried with backoff. A NotFound reply becomes ErrSymbolNotFound.
func (s *GRPCSource) exchange(ctx context.Context, req *rpb.ServerReflectionRequest) (*rpb.ServerReflectionResponse, error) {
	op := func() (*rpb.ServerReflectionResponse, error) {
		resp, err := s.roundTrip(ctx, req)
		if err != nil && status.Code(err) != codes.Unavailable {
			return nil, backoff.Permanent(err)
		}
		return resp, err
	}
	notify := func(err error, wait time.Duration) {
		s.logger.DebugContext(ctx, "reflection unavailable, retrying", "error", err, "wait", wait)
	}
	resp, err := backoff.RetryNotifyWithData(op, backoff.WithContext(s.backoff(), ctx), notify)
	if err != nil {
		return nil, fmt.Errorf("server reflection: %w", err)
	}
	if e := resp.GetErrorResponse(); e != nil {
		err := errors.New(e.GetErrorMessage())
		if codes.Code(e.GetErrorCode()) == codes.NotFound {
			return nil, fmt.Errorf("%w: %v", ErrSymbolNotFound, err)
		}
		return nil, fmt.Errorf("server reflection: %w", err)
	}
	return resp, nil
}

func (s *GRPCSource) roundTrip(ctx context.Context, req *rpb.ServerReflectionRequest) (*rpb.ServerReflectionResponse, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stream, err := s.client.ServerReflectionInfo(ctx)
	if err != nil {
		return nil, err
	}
	if err := stream.Send(req); err != nil {
		return nil, err
	}
	resp, err := stream.Recv()
	if err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	return resp, nil
}
