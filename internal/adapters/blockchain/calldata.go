package blockchain

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
)

// ParseSignature splits "transfer(address,uint256)" into its name and
// argument types.
func ParseSignature(signature string) (string, []string, error) {
	signature = strings.ReplaceAll(strings.TrimSpace(signature), " ", "")
	open := strings.Index(signature, "(")
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return "", nil, domain.InvalidParameter("invalid function signature %q", signature)
	}

	name := signature[:open]
	inner := signature[open+1 : len(signature)-1]
	if inner == "" {
		return name, nil, nil
	}
	return name, strings.Split(inner, ","), nil
}

// EncodeCall builds calldata for signature with args converted from text
func EncodeCall(signature string, args []string) ([]byte, error) {
	name, typeNames, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	if len(typeNames) != len(args) {
		return nil, domain.InvalidParameter("%s expects %d arguments, got %d", name, len(typeNames), len(args))
	}

	arguments := make(abi.Arguments, 0, len(typeNames))
	values := make([]any, 0, len(args))
	for i, typeName := range typeNames {
		ty, err := abi.NewType(typeName, "", nil)
		if err != nil {
			return nil, domain.InvalidParameter("unsupported argument type %q: %v", typeName, err)
		}
		v, err := convertArg(ty, args[i])
		if err != nil {
			return nil, domain.InvalidParameter("argument %d (%s): %v", i, typeName, err)
		}
		arguments = append(arguments, abi.Argument{Type: ty})
		values = append(values, v)
	}

	packed, err := arguments.Pack(values...)
	if err != nil {
		return nil, domain.InvalidParameter("failed to encode %s: %v", name, err)
	}

	canonical := name + "(" + strings.Join(typeNames, ",") + ")"
	selector := crypto.Keccak256([]byte(canonical))[:4]
	return append(selector, packed...), nil
}

func convertArg(ty abi.Type, raw string) (any, error) {
	switch ty.T {
	case abi.AddressTy:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid address %q", raw)
		}
		return common.HexToAddress(raw), nil
	case abi.BoolTy:
		return strconv.ParseBool(raw)
	case abi.StringTy:
		return raw, nil
	case abi.BytesTy:
		return hexutil.Decode(raw)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(raw)
		if err != nil {
			return nil, err
		}
		if len(b) > ty.Size {
			return nil, fmt.Errorf("value is %d bytes, want at most %d", len(b), ty.Size)
		}
		arr := reflect.New(ty.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(raw, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		if ty.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value for unsigned type")
		}
		if n.BitLen() > ty.Size || (ty.T == abi.IntTy && n.BitLen() == ty.Size) {
			return nil, fmt.Errorf("value out of range for %s", ty.String())
		}
		goType := ty.GetType()
		if goType == reflect.TypeOf(n) {
			return n, nil
		}
		if ty.T == abi.UintTy {
			return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
		}
		return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
	default:
		return nil, fmt.Errorf("type %s is not supported", ty.String())
	}
}
