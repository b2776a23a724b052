// Package testpb builds the descriptors used by tests across the module. The
// file is assembled from descriptorpb at init so no generated code is needed.
package testpb

import (
	"github.com/iancoleman/strcase"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	// Registered so protodesc can resolve the imports below.
	_ "google.golang.org/protobuf/types/known/anypb"
	_ "google.golang.org/protobuf/types/known/durationpb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
)

const (
	// FileName is the path of the synthetic file.
	FileName = "example/v1/orders.proto"
	// OrderRequest is the full name of the request message.
	OrderRequest = "example.v1.OrderRequest"
	// ServiceName is the full name of the synthetic service.
	ServiceName = "example.v1.OrderService"
)

var file protoreflect.FileDescriptor

func init() {
	fd, err := protodesc.NewFile(FileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(err)
	}
	file = fd
}

// File returns the synthetic file descriptor.
func File() protoreflect.FileDescriptor { return file }

// Files returns a registry holding the synthetic file and its imports, for
// serving over reflection.
func Files() *protoregistry.Files {
	files := new(protoregistry.Files)
	for _, dep := range fileProto.GetDependency() {
		fd, err := protoregistry.GlobalFiles.FindFileByPath(dep)
		if err != nil {
			panic(err)
		}
		if err := files.RegisterFile(fd); err != nil {
			panic(err)
		}
	}
	if err := files.RegisterFile(file); err != nil {
		panic(err)
	}
	return files
}

// Request returns the descriptor of example.v1.OrderRequest.
func Request() protoreflect.MessageDescriptor {
	return file.Messages().ByName("OrderRequest")
}

// FileProto returns a fresh copy of the file descriptor proto:
//
//	enum Priority { PRIORITY_UNSPECIFIED = 0; PRIORITY_LOW = 1; PRIORITY_HIGH = 2; }
//	message Item { string sku = 1; int32 quantity = 2; Item bundled = 3; }
//	message OrderRequest {
//	  string customer = 1;
//	  repeated string tags = 2;
//	  repeated Item items = 3;
//	  map<string, string> labels = 4;
//	  Priority priority = 5;
//	  google.protobuf.Timestamp deliver_at = 6;
//	  google.protobuf.Duration ttl = 7;
//	  google.protobuf.Struct metadata = 8;
//	  google.protobuf.Value extra = 9;
//	  google.protobuf.ListValue history = 10;
//	  google.protobuf.Any attachment = 11;
//	  google.protobuf.NullValue nothing = 12;
//	  oneof payment { string card = 13; string voucher = 14; }
//	  double discount = 15;
//	  bool gift = 16;
//	  bytes note = 17;
//	  uint64 batch = 18;
//	  sint32 offset = 19;
//	  fixed64 checksum = 20;
//	  float weight = 21;
//	}
//	message PlaceOrderResponse {}
//	service OrderService { rpc PlaceOrder(OrderRequest) returns (PlaceOrderResponse); }
func FileProto() *descriptorpb.FileDescriptorProto {
	return proto.Clone(fileProto).(*descriptorpb.FileDescriptorProto)
}

var fileProto = &descriptorpb.FileDescriptorProto{
	Name:    proto.String(FileName),
	Package: proto.String("example.v1"),
	Syntax:  proto.String("proto3"),
	Dependency: []string{
		"google/protobuf/any.proto",
		"google/protobuf/duration.proto",
		"google/protobuf/struct.proto",
		"google/protobuf/timestamp.proto",
	},
	EnumType: []*descriptorpb.EnumDescriptorProto{{
		Name: proto.String("Priority"),
		Value: []*descriptorpb.EnumValueDescriptorProto{
			{Name: proto.String("PRIORITY_UNSPECIFIED"), Number: proto.Int32(0)},
			{Name: proto.String("PRIORITY_LOW"), Number: proto.Int32(1)},
			{Name: proto.String("PRIORITY_HIGH"), Number: proto.Int32(2)},
		},
	}},
	MessageType: []*descriptorpb.DescriptorProto{
		{
			Name: proto.String("Item"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalar("sku", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalar("quantity", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				message("bundled", 3, ".example.v1.Item"),
			},
		},
		{
			Name: proto.String("OrderRequest"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalar("customer", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				repeated(scalar("tags", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
				repeated(message("items", 3, ".example.v1.Item")),
				repeated(message("labels", 4, ".example.v1.OrderRequest.LabelsEntry")),
				enum("priority", 5, ".example.v1.Priority"),
				message("deliver_at", 6, ".google.protobuf.Timestamp"),
				message("ttl", 7, ".google.protobuf.Duration"),
				message("metadata", 8, ".google.protobuf.Struct"),
				message("extra", 9, ".google.protobuf.Value"),
				message("history", 10, ".google.protobuf.ListValue"),
				message("attachment", 11, ".google.protobuf.Any"),
				enum("nothing", 12, ".google.protobuf.NullValue"),
				inOneof(scalar("card", 13, descriptorpb.FieldDescriptorProto_TYPE_STRING), 0),
				inOneof(scalar("voucher", 14, descriptorpb.FieldDescriptorProto_TYPE_STRING), 0),
				scalar("discount", 15, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
				scalar("gift", 16, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
				scalar("note", 17, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
				scalar("batch", 18, descriptorpb.FieldDescriptorProto_TYPE_UINT64),
				scalar("offset", 19, descriptorpb.FieldDescriptorProto_TYPE_SINT32),
				scalar("checksum", 20, descriptorpb.FieldDescriptorProto_TYPE_FIXED64),
				scalar("weight", 21, descriptorpb.FieldDescriptorProto_TYPE_FLOAT),
			},
			NestedType: []*descriptorpb.DescriptorProto{{
				Name: proto.String("LabelsEntry"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("key", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("value", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
				Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
			}},
			OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String("payment")}},
		},
		{Name: proto.String("PlaceOrderResponse")},
	},
	Service: []*descriptorpb.ServiceDescriptorProto{{
		Name: proto.String("OrderService"),
		Method: []*descriptorpb.MethodDescriptorProto{{
			Name:       proto.String("PlaceOrder"),
			InputType:  proto.String(".example.v1.OrderRequest"),
			OutputType: proto.String(".example.v1.PlaceOrderResponse"),
		}},
	}},
}

func scalar(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(strcase.ToLowerCamel(name)),
		Number:   proto.Int32(number),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     typ.Enum(),
	}
}

func message(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := scalar(name, number, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	f.TypeName = proto.String(typeName)
	return f
}

func enum(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := scalar(name, number, descriptorpb.FieldDescriptorProto_TYPE_ENUM)
	f.TypeName = proto.String(typeName)
	return f
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func inOneof(f *descriptorpb.FieldDescriptorProto, index int32) *descriptorpb.FieldDescriptorProto {
	f.OneofIndex = proto.Int32(index)
	return f
}
