// Package reflection resolves request schemas from a running server (gRPC
// server reflection) or from compiled descriptor set files.
package reflection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

var (
	// ErrSymbolNotFound is returned when no source knows a symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoSource is returned when neither reflection nor descriptor sets are
	// configured.
	ErrNoSource = errors.New("no schema source configured")
)

// Source looks up service and message descriptors.
type Source interface {
	// Services lists fully-qualified service names, sorted.
	Services(ctx context.Context) ([]string, error)
	// ResolveMessage finds a message by full name.
	ResolveMessage(ctx context.Context, fullName string) (protoreflect.MessageDescriptor, error)
	// ResolveMethod finds a method given as "pkg.Service/Method" or
	// "pkg.Service.Method".
	ResolveMethod(ctx context.Context, method string) (protoreflect.MethodDescriptor, error)
	Close() error
}

// Resolve returns the message to edit for symbol, which is either a message
// full name or a method whose input message is used.
func Resolve(ctx context.Context, src Source, symbol string) (protoreflect.MessageDescriptor, error) {
	symbol = strings.TrimPrefix(symbol, ".")
	if strings.Contains(symbol, "/") {
		md, err := src.ResolveMethod(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return md.Input(), nil
	}
	msg, err := src.ResolveMessage(ctx, symbol)
	if err == nil {
		return msg, nil
	}
	if !errors.Is(err, ErrSymbolNotFound) {
		return nil, err
	}
	if md, merr := src.ResolveMethod(ctx, symbol); merr == nil {
		return md.Input(), nil
	}
	return nil, err
}

// SplitMethod splits "pkg.Service/Method" or "pkg.Service.Method".
func SplitMethod(method string) (service, name string, err error) {
	method = strings.TrimPrefix(method, "/")
	sep := strings.LastIndexByte(method, '/')
	if sep < 0 {
		sep = strings.LastIndexByte(method, '.')
	}
	if sep <= 0 || sep == len(method)-1 {
		return "", "", fmt.Errorf("%w: malformed method %q", ErrSymbolNotFound, method)
	}
	return method[:sep], method[sep+1:], nil
}

// buildFiles links protos into a registry. Imports missing from protos are
// taken from the linked-in well-known files.
func buildFiles(protos map[string]*descriptorpb.FileDescriptorProto) (*protoregistry.Files, error) {
	set := &descriptorpb.FileDescriptorSet{}
	added := make(map[string]bool, len(protos))
	var add func(name string) error
	add = func(name string) error {
		if added[name] {
			return nil
		}
		added[name] = true
		fdp, ok := protos[name]
		if !ok {
			fd, err := protoregistry.GlobalFiles.FindFileByPath(name)
			if err != nil {
				return fmt.Errorf("%w: import %s", ErrSymbolNotFound, name)
			}
			fdp = protodesc.ToFileDescriptorProto(fd)
		}
		set.File = append(set.File, fdp)
		for _, dep := range fdp.GetDependency() {
			if err := add(dep); err != nil {
				return err
			}
		}
		return nil
	}
	names := lo.Keys(protos)
	sort.Strings(names)
	for _, name := range names {
		if err := add(name); err != nil {
			return nil, err
		}
	}
	files, err := protodesc.NewFiles(set)
	if err != nil {
		return nil, fmt.Errorf("link descriptors: %w", err)
	}
	return files, nil
}

// registry answers lookups from linked files.
type registry struct {
	files *protoregistry.Files
}

func (r registry) services() []string {
	var out []string
	if r.files == nil {
		return out
	}
	r.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		svcs := fd.Services()
		for i := 0; i < svcs.Len(); i++ {
			out = append(out, string(svcs.Get(i).FullName()))
		}
		return true
	})
	sort.Strings(out)
	return out
}

func (r registry) message(fullName string) (protoreflect.MessageDescriptor, error) {
	if r.files == nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, fullName)
	}
	d, err := r.files.FindDescriptorByName(protoreflect.FullName(fullName))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, fullName)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a message", ErrSymbolNotFound, fullName)
	}
	return md, nil
}

func (r registry) method(method string) (protoreflect.MethodDescriptor, error) {
	svcName, name, err := SplitMethod(method)
	if err != nil {
		return nil, err
	}
	if r.files == nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, svcName)
	}
	d, err := r.files.FindDescriptorByName(protoreflect.FullName(svcName))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, svcName)
	}
	sd, ok := d.(protoreflect.ServiceDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a service", ErrSymbolNotFound, svcName)
	}
	md := sd.Methods().ByName(protoreflect.Name(name))
	if md == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrSymbolNotFound, svcName, name)
	}
	return md, nil
}

// Chain asks each source in turn and returns the first hit.
type Chain []Source

func (c Chain) Services(ctx context.Context) ([]string, error) {
	var all []string
	for _, src := range c {
		names, err := src.Services(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, names...)
	}
	all = lo.Uniq(all)
	sort.Strings(all)
	return all, nil
}

func (c Chain) ResolveMessage(ctx context.Context, fullName string) (protoreflect.MessageDescriptor, error) {
	return first(c, func(src Source) (protoreflect.MessageDescriptor, error) {
		return src.ResolveMessage(ctx, fullName)
	})
}

func (c Chain) ResolveMethod(ctx context.Context, method string) (protoreflect.MethodDescriptor, error) {
	return first(c, func(src Source) (protoreflect.MethodDescriptor, error) {
		return src.ResolveMethod(ctx, method)
	})
}

func (c Chain) Close() error {
	var errs []error
	for _, src := range c {
		errs = append(errs, src.Close())
	}
	return errors.Join(errs...)
}

func first[T any](c Chain, fn func(Source) (T, error)) (T, error) {
	var zero T
	if len(c) == 0 {
		return zero, ErrNoSource
	}
	var lastErr error
	for _, src := range c {
		v, err := fn(src)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrSymbolNotFound) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}
