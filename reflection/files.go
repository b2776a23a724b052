package reflection

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// FileSource serves descriptors from FileDescriptorSet files, as written by
// `protoc --include_imports -o` or `buf build -o`.
type FileSource struct {
	reg registry
}

var _ Source = (*FileSource)(nil)

// LoadFiles reads and links the given descriptor set files.
func LoadFiles(paths ...string) (*FileSource, error) {
	sets := make([]*descriptorpb.FileDescriptorSet, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read descriptor set: %w", err)
		}
		set := &descriptorpb.FileDescriptorSet{}
		if err := proto.Unmarshal(data, set); err != nil {
			return nil, fmt.Errorf("parse descriptor set %s: %w", p, err)
		}
		sets = append(sets, set)
	}
	return NewFileSource(sets...)
}

// NewFileSource links already parsed descriptor sets. A file present in more
// than one set is taken from the first.
func NewFileSource(sets ...*descriptorpb.FileDescriptorSet) (*FileSource, error) {
	protos := make(map[string]*descriptorpb.FileDescriptorProto)
	for _, set := range sets {
		for _, fdp := range set.GetFile() {
			if _, dup := protos[fdp.GetName()]; !dup {
				protos[fdp.GetName()] = fdp
			}
		}
	}
	files, err := buildFiles(protos)
	if err != nil {
		return nil, err
	}
	return &FileSource{reg: registry{files: files}}, nil
}

func (s *FileSource) Services(context.Context) ([]string, error) {
	return s.reg.services(), nil
}

func (s *FileSource) ResolveMessage(_ context.Context, fullName string) (protoreflect.MessageDescriptor, error) {
	return s.reg.message(fullName)
}

func (s *FileSource) ResolveMethod(_ context.Context, method string) (protoreflect.MethodDescriptor, error) {
	return s.reg.method(method)
}

func (s *FileSource) Close() error { return nil }
