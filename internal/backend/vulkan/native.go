//go:build vulkan

package vulkan

/*
#cgo LDFLAGS: -lvulkan

#include <vulkan/vulkan.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

typedef struct vkat_ctx {
	VkInstance instance;
	VkPhysicalDevice pdev;
	VkDevice device;
	uint32_t qfam;
	VkQueue queue;
	VkPhysicalDeviceProperties props;
	uint32_t subgroup;
	VkCommandPool cpool;
	VkDescriptorSetLayout dsl;
	VkPipelineLayout ppl;
	VkDescriptorPool dpool;
	VkDescriptorSet dset;
	VkQueryPool qpool;
	VkShaderModule module;
	VkBuffer buf[3];
	VkDeviceMemory mem[3];
	VkDeviceSize size[3];
	struct vkat_sub* parked;
} vkat_ctx;

// A submission whose fence outlived the release grace period is parked on
// the context and freed once it signals. own_pipe marks a pipeline whose
// destruction was deferred until then.
typedef struct vkat_sub {
	VkCommandBuffer cb;
	VkFence fence;
	VkPipeline pipe;
	int own_pipe;
	struct vkat_sub* next;
} vkat_sub;

static void vkat_free_sub(vkat_ctx* c, vkat_sub* s) {
	if (s->fence) vkDestroyFence(c->device, s->fence, NULL);
	if (s->cb) vkFreeCommandBuffers(c->device, c->cpool, 1, &s->cb);
	if (s->own_pipe && s->pipe) vkDestroyPipeline(c->device, s->pipe, NULL);
	free(s);
}

// vkat_reap frees parked submissions. With all set it frees every entry,
// which is only safe after the device went idle.
static void vkat_reap(vkat_ctx* c, int all) {
	vkat_sub** link = &c->parked;
	while (*link) {
		vkat_sub* s = *link;
		if (all || vkGetFenceStatus(c->device, s->fence) == VK_SUCCESS) {
			*link = s->next;
			vkat_free_sub(c, s);
		} else {
			link = &s->next;
		}
	}
}

static int vkat_is_software(const char* name) {
	return strstr(name, "llvmpipe") != NULL || strstr(name, "lavapipe") != NULL || strstr(name, "software") != NULL;
}

static int vkat_compute_family(VkPhysicalDevice d, uint32_t* out) {
	uint32_t n = 0;
	vkGetPhysicalDeviceQueueFamilyProperties(d, &n, NULL);
	if (n == 0) return 0;
	VkQueueFamilyProperties* q = (VkQueueFamilyProperties*)calloc(n, sizeof(*q));
	if (!q) return 0;
	vkGetPhysicalDeviceQueueFamilyProperties(d, &n, q);
	int found = 0;
	for (uint32_t i = 0; i < n; i++) {
		if (q[i].queueFlags & VK_QUEUE_COMPUTE_BIT) { *out = i; found = 1; break; }
	}
	free(q);
	return found;
}

static void vkat_destroy(vkat_ctx* c) {
	if (!c) return;
	if (c->device) {
		vkDeviceWaitIdle(c->device);
		vkat_reap(c, 1);
		if (c->module) vkDestroyShaderModule(c->device, c->module, NULL);
		for (int i = 0; i < 3; i++) {
			if (c->buf[i]) vkDestroyBuffer(c->device, c->buf[i], NULL);
			if (c->mem[i]) vkFreeMemory(c->device, c->mem[i], NULL);
		}
		if (c->dpool) vkDestroyDescriptorPool(c->device, c->dpool, NULL);
		if (c->ppl) vkDestroyPipelineLayout(c->device, c->ppl, NULL);
		if (c->dsl) vkDestroyDescriptorSetLayout(c->device, c->dsl, NULL);
		if (c->qpool) vkDestroyQueryPool(c->device, c->qpool, NULL);
		if (c->cpool) vkDestroyCommandPool(c->device, c->cpool, NULL);
		vkDestroyDevice(c->device, NULL);
	}
	if (c->instance) vkDestroyInstance(c->instance, NULL);
	free(c);
}

static int vkat_create(vkat_ctx** out, const char* filter) {
	VkResult r;
	vkat_ctx* c = (vkat_ctx*)calloc(1, sizeof(vkat_ctx));
	if (!c) return VK_ERROR_OUT_OF_HOST_MEMORY;

	VkApplicationInfo ai = { VK_STRUCTURE_TYPE_APPLICATION_INFO };
	ai.pApplicationName = "vkautotune";
	ai.apiVersion = VK_API_VERSION_1_3;
	VkInstanceCreateInfo ici = { VK_STRUCTURE_TYPE_INSTANCE_CREATE_INFO };
	ici.pApplicationInfo = &ai;
	if ((r = vkCreateInstance(&ici, NULL, &c->instance)) != VK_SUCCESS) { vkat_destroy(c); return r; }

	uint32_t ndev = 0;
	if ((r = vkEnumeratePhysicalDevices(c->instance, &ndev, NULL)) != VK_SUCCESS) { vkat_destroy(c); return r; }
	if (ndev == 0) { vkat_destroy(c); return VK_ERROR_INCOMPATIBLE_DRIVER; }
	VkPhysicalDevice* devs = (VkPhysicalDevice*)calloc(ndev, sizeof(VkPhysicalDevice));
	if (!devs) { vkat_destroy(c); return VK_ERROR_OUT_OF_HOST_MEMORY; }
	if ((r = vkEnumeratePhysicalDevices(c->instance, &ndev, devs)) != VK_SUCCESS) { free(devs); vkat_destroy(c); return r; }

	int has_filter = filter && filter[0];
	VkPhysicalDevice fallback = VK_NULL_HANDLE;
	uint32_t fallback_fam = 0;
	for (uint32_t i = 0; i < ndev; i++) {
		VkPhysicalDeviceProperties p;
		vkGetPhysicalDeviceProperties(devs[i], &p);
		uint32_t fam = 0;
		if (!vkat_compute_family(devs[i], &fam)) continue;
		if (has_filter && !strstr(p.deviceName, filter)) continue;
		if (!fallback) { fallback = devs[i]; fallback_fam = fam; }
		if (!has_filter && vkat_is_software(p.deviceName)) continue;
		c->pdev = devs[i];
		c->qfam = fam;
		break;
	}
	free(devs);
	if (!c->pdev) { c->pdev = fallback; c->qfam = fallback_fam; }
	if (!c->pdev) { vkat_destroy(c); return VK_ERROR_INCOMPATIBLE_DRIVER; }
	vkGetPhysicalDeviceProperties(c->pdev, &c->props);

	VkPhysicalDeviceSubgroupProperties sp = { VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_SUBGROUP_PROPERTIES };
	VkPhysicalDeviceProperties2 p2 = { VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_PROPERTIES_2 };
	p2.pNext = &sp;
	vkGetPhysicalDeviceProperties2(c->pdev, &p2);
	c->subgroup = sp.subgroupSize;

	float prio = 1.0f;
	VkDeviceQueueCreateInfo qci = { VK_STRUCTURE_TYPE_DEVICE_QUEUE_CREATE_INFO };
	qci.queueFamilyIndex = c->qfam;
	qci.queueCount = 1;
	qci.pQueuePriorities = &prio;
	VkDeviceCreateInfo dci = { VK_STRUCTURE_TYPE_DEVICE_CREATE_INFO };
	dci.queueCreateInfoCount = 1;
	dci.pQueueCreateInfos = &qci;
	if ((r = vkCreateDevice(c->pdev, &dci, NULL, &c->device)) != VK_SUCCESS) { vkat_destroy(c); return r; }
	vkGetDeviceQueue(c->device, c->qfam, 0, &c->queue);

	VkCommandPoolCreateInfo pci = { VK_STRUCTURE_TYPE_COMMAND_POOL_CREATE_INFO };
	pci.queueFamilyIndex = c->qfam;
	if ((r = vkCreateCommandPool(c->device, &pci, NULL, &c->cpool)) != VK_SUCCESS) { vkat_destroy(c); return r; }

	VkDescriptorSetLayoutBinding b[3];
	memset(b, 0, sizeof(b));
	for (uint32_t i = 0; i < 3; i++) {
		b[i].binding = i;
		b[i].descriptorType = VK_DESCRIPTOR_TYPE_STORAGE_BUFFER;
		b[i].descriptorCount = 1;
		b[i].stageFlags = VK_SHADER_STAGE_COMPUTE_BIT;
	}
	VkDescriptorSetLayoutCreateInfo dlci = { VK_STRUCTURE_TYPE_DESCRIPTOR_SET_LAYOUT_CREATE_INFO };
	dlci.bindingCount = 3;
	dlci.pBindings = b;
	if ((r = vkCreateDescriptorSetLayout(c->device, &dlci, NULL, &c->dsl)) != VK_SUCCESS) { vkat_destroy(c); return r; }

	VkPushConstantRange pcr = { VK_SHADER_STAGE_COMPUTE_BIT, 0, 6 * sizeof(uint32_t) };
	VkPipelineLayoutCreateInfo plci = { VK_STRUCTURE_TYPE_PIPELINE_LAYOUT_CREATE_INFO };
	plci.setLayoutCount = 1;
	plci.pSetLayouts = &c->dsl;
	plci.pushConstantRangeCount = 1;
	plci.pPushConstantRanges = &pcr;
	if ((r = vkCreatePipelineLayout(c->device, &plci, NULL, &c->ppl)) != VK_SUCCESS) { vkat_destroy(c); return r; }

	VkDescriptorPoolSize dps = { VK_DESCRIPTOR_TYPE_STORAGE_BUFFER, 3 };
	VkDescriptorPoolCreateInfo dpci = { VK_STRUCTURE_TYPE_DESCRIPTOR_POOL_CREATE_INFO };
	dpci.maxSets = 1;
	dpci.poolSizeCount = 1;
	dpci.pPoolSizes = &dps;
	if ((r = vkCreateDescriptorPool(c->device, &dpci, NULL, &c->dpool)) != VK_SUCCESS) { vkat_destroy(c); return r; }

	VkQueryPoolCreateInfo qpci = { VK_STRUCTURE_TYPE_QUERY_POOL_CREATE_INFO };
	qpci.queryType = VK_QUERY_TYPE_TIMESTAMP;
	qpci.queryCount = 2;
	if ((r = vkCreateQueryPool(c->device, &qpci, NULL, &c->qpool)) != VK_SUCCESS) { vkat_destroy(c); return r; }

	*out = c;
	return VK_SUCCESS;
}

static int vkat_create_buffer(vkat_ctx* c, int i, VkDeviceSize size) {
	VkResult r;
	VkBufferCreateInfo bi = { VK_STRUCTURE_TYPE_BUFFER_CREATE_INFO };
	bi.size = size;
	bi.usage = VK_BUFFER_USAGE_STORAGE_BUFFER_BIT;
	bi.sharingMode = VK_SHARING_MODE_EXCLUSIVE;
	if ((r = vkCreateBuffer(c->device, &bi, NULL, &c->buf[i])) != VK_SUCCESS) return r;

	VkMemoryRequirements mr;
	vkGetBufferMemoryRequirements(c->device, c->buf[i], &mr);
	VkPhysicalDeviceMemoryProperties mp;
	vkGetPhysicalDeviceMemoryProperties(c->pdev, &mp);
	const VkMemoryPropertyFlags want = VK_MEMORY_PROPERTY_HOST_VISIBLE_BIT | VK_MEMORY_PROPERTY_HOST_COHERENT_BIT;
	uint32_t idx = UINT32_MAX;
	for (uint32_t t = 0; t < mp.memoryTypeCount; t++) {
		if ((mr.memoryTypeBits & (1u << t)) && (mp.memoryTypes[t].propertyFlags & want) == want) { idx = t; break; }
	}
	if (idx == UINT32_MAX) return VK_ERROR_FEATURE_NOT_PRESENT;

	VkMemoryAllocateInfo ai = { VK_STRUCTURE_TYPE_MEMORY_ALLOCATE_INFO };
	ai.allocationSize = mr.size;
	ai.memoryTypeIndex = idx;
	if ((r = vkAllocateMemory(c->device, &ai, NULL, &c->mem[i])) != VK_SUCCESS) return r;
	if ((r = vkBindBufferMemory(c->device, c->buf[i], c->mem[i], 0)) != VK_SUCCESS) return r;
	c->size[i] = size;
	return VK_SUCCESS;
}

static int vkat_fill(vkat_ctx* c, int i, float v) {
	void* p = NULL;
	VkResult r = vkMapMemory(c->device, c->mem[i], 0, VK_WHOLE_SIZE, 0, &p);
	if (r != VK_SUCCESS) return r;
	float* f = (float*)p;
	for (VkDeviceSize j = 0; j < c->size[i] / sizeof(float); j++) f[j] = v;
	vkUnmapMemory(c->device, c->mem[i]);
	return VK_SUCCESS;
}

static int vkat_alloc_buffers(vkat_ctx* c, uint64_t sa, uint64_t sb, uint64_t sc) {
	VkResult r;
	if ((r = vkat_create_buffer(c, 0, sa)) != VK_SUCCESS) return r;
	if ((r = vkat_create_buffer(c, 1, sb)) != VK_SUCCESS) return r;
	if ((r = vkat_create_buffer(c, 2, sc)) != VK_SUCCESS) return r;
	if ((r = vkat_fill(c, 0, 1.0f)) != VK_SUCCESS) return r;
	if ((r = vkat_fill(c, 1, 1.0f)) != VK_SUCCESS) return r;

	VkDescriptorSetAllocateInfo dsai = { VK_STRUCTURE_TYPE_DESCRIPTOR_SET_ALLOCATE_INFO };
	dsai.descriptorPool = c->dpool;
	dsai.descriptorSetCount = 1;
	dsai.pSetLayouts = &c->dsl;
	if ((r = vkAllocateDescriptorSets(c->device, &dsai, &c->dset)) != VK_SUCCESS) return r;

	VkDescriptorBufferInfo bi[3];
	VkWriteDescriptorSet w[3];
	memset(w, 0, sizeof(w));
	for (int i = 0; i < 3; i++) {
		bi[i].buffer = c->buf[i];
		bi[i].offset = 0;
		bi[i].range = c->size[i];
		w[i].sType = VK_STRUCTURE_TYPE_WRITE_DESCRIPTOR_SET;
		w[i].dstSet = c->dset;
		w[i].dstBinding = (uint32_t)i;
		w[i].descriptorCount = 1;
		w[i].descriptorType = VK_DESCRIPTOR_TYPE_STORAGE_BUFFER;
		w[i].pBufferInfo = &bi[i];
	}
	vkUpdateDescriptorSets(c->device, 3, w, 0, NULL);
	return VK_SUCCESS;
}

static int vkat_load_module(vkat_ctx* c, const uint32_t* code, size_t bytes) {
	VkShaderModuleCreateInfo ci = { VK_STRUCTURE_TYPE_SHADER_MODULE_CREATE_INFO };
	ci.codeSize = bytes;
	ci.pCode = code;
	return vkCreateShaderModule(c->device, &ci, NULL, &c->module);
}

static int vkat_build(vkat_ctx* c, const uint32_t* spec, VkPipeline* out) {
	VkSpecializationMapEntry me[7];
	for (uint32_t i = 0; i < 7; i++) {
		me[i].constantID = i;
		me[i].offset = i * sizeof(uint32_t);
		me[i].size = sizeof(uint32_t);
	}
	VkSpecializationInfo si;
	si.mapEntryCount = 7;
	si.pMapEntries = me;
	si.dataSize = 7 * sizeof(uint32_t);
	si.pData = spec;

	VkPipelineShaderStageCreateInfo ss = { VK_STRUCTURE_TYPE_PIPELINE_SHADER_STAGE_CREATE_INFO };
	ss.stage = VK_SHADER_STAGE_COMPUTE_BIT;
	ss.module = c->module;
	ss.pName = "main";
	ss.pSpecializationInfo = &si;

	VkComputePipelineCreateInfo pci = { VK_STRUCTURE_TYPE_COMPUTE_PIPELINE_CREATE_INFO };
	pci.stage = ss;
	pci.layout = c->ppl;
	return vkCreateComputePipelines(c->device, VK_NULL_HANDLE, 1, &pci, NULL, out);
}

static void vkat_destroy_pipeline(vkat_ctx* c, VkPipeline p) {
	if (!p) return;
	for (vkat_sub* s = c->parked; s; s = s->next) {
		if (s->pipe == p) { s->own_pipe = 1; return; }
	}
	vkDestroyPipeline(c->device, p, NULL);
}

// vkat_release frees a submitted command buffer. Work still running after
// grace_ns is parked instead and VK_TIMEOUT is returned.
static int vkat_release(vkat_ctx* c, vkat_sub* s, uint64_t grace_ns) {
	if (!s) return VK_SUCCESS;
	vkat_reap(c, 0);
	if (vkGetFenceStatus(c->device, s->fence) != VK_SUCCESS &&
			vkWaitForFences(c->device, 1, &s->fence, VK_TRUE, grace_ns) != VK_SUCCESS) {
		s->next = c->parked;
		c->parked = s;
		return VK_TIMEOUT;
	}
	vkat_free_sub(c, s);
	return VK_SUCCESS;
}

static int vkat_submit(vkat_ctx* c, VkPipeline pipe, uint32_t gx, uint32_t gy,
		uint32_t warm, uint32_t rep, const uint32_t* push, vkat_sub** out) {
	VkResult r;
	vkat_reap(c, 0);
	vkat_sub* s = (vkat_sub*)calloc(1, sizeof(vkat_sub));
	if (!s) return VK_ERROR_OUT_OF_HOST_MEMORY;
	s->pipe = pipe;

	VkCommandBufferAllocateInfo cbai = { VK_STRUCTURE_TYPE_COMMAND_BUFFER_ALLOCATE_INFO };
	cbai.commandPool = c->cpool;
	cbai.level = VK_COMMAND_BUFFER_LEVEL_PRIMARY;
	cbai.commandBufferCount = 1;
	if ((r = vkAllocateCommandBuffers(c->device, &cbai, &s->cb)) != VK_SUCCESS) { free(s); return r; }

	VkCommandBufferBeginInfo cbi = { VK_STRUCTURE_TYPE_COMMAND_BUFFER_BEGIN_INFO };
	cbi.flags = VK_COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT;
	if ((r = vkBeginCommandBuffer(s->cb, &cbi)) != VK_SUCCESS) { vkat_free_sub(c, s); return r; }

	vkCmdResetQueryPool(s->cb, c->qpool, 0, 2);
	vkCmdBindPipeline(s->cb, VK_PIPELINE_BIND_POINT_COMPUTE, pipe);
	vkCmdBindDescriptorSets(s->cb, VK_PIPELINE_BIND_POINT_COMPUTE, c->ppl, 0, 1, &c->dset, 0, NULL);
	vkCmdPushConstants(s->cb, c->ppl, VK_SHADER_STAGE_COMPUTE_BIT, 0, 6 * sizeof(uint32_t), push);
	for (uint32_t i = 0; i < warm; i++) vkCmdDispatch(s->cb, gx, gy, 1);
	vkCmdWriteTimestamp(s->cb, VK_PIPELINE_STAGE_COMPUTE_SHADER_BIT, c->qpool, 0);
	for (uint32_t i = 0; i < rep; i++) vkCmdDispatch(s->cb, gx, gy, 1);
	vkCmdWriteTimestamp(s->cb, VK_PIPELINE_STAGE_COMPUTE_SHADER_BIT, c->qpool, 1);
	if ((r = vkEndCommandBuffer(s->cb)) != VK_SUCCESS) { vkat_free_sub(c, s); return r; }

	VkFenceCreateInfo fci = { VK_STRUCTURE_TYPE_FENCE_CREATE_INFO };
	if ((r = vkCreateFence(c->device, &fci, NULL, &s->fence)) != VK_SUCCESS) { vkat_free_sub(c, s); return r; }

	VkSubmitInfo si = { VK_STRUCTURE_TYPE_SUBMIT_INFO };
	si.commandBufferCount = 1;
	si.pCommandBuffers = &s->cb;
	if ((r = vkQueueSubmit(c->queue, 1, &si, s->fence)) != VK_SUCCESS) { vkat_free_sub(c, s); return r; }

	*out = s;
	return VK_SUCCESS;
}

static int vkat_wait(vkat_ctx* c, vkat_sub* s, uint64_t timeout_ns) {
	return vkWaitForFences(c->device, 1, &s->fence, VK_TRUE, timeout_ns);
}

static int vkat_timestamps(vkat_ctx* c, uint64_t* out) {
	return vkGetQueryPoolResults(c->device, c->qpool, 0, 2, 2 * sizeof(uint64_t), out, sizeof(uint64_t),
		VK_QUERY_RESULT_64_BIT | VK_QUERY_RESULT_WAIT_BIT);
}

static void vkat_info(vkat_ctx* c, uint32_t* out) {
	VkPhysicalDeviceLimits* l = &c->props.limits;
	out[0] = l->maxComputeWorkGroupInvocations;
	out[1] = l->maxComputeSharedMemorySize;
	out[2] = l->maxComputeWorkGroupSize[0];
	out[3] = l->maxComputeWorkGroupSize[1];
	out[4] = c->subgroup;
	out[5] = c->props.apiVersion;
	out[6] = c->props.driverVersion;
}

static float vkat_timestamp_period(vkat_ctx* c) {
	return c->props.limits.timestampPeriod;
}

static const char* vkat_device_name(vkat_ctx* c) {
	return c->props.deviceName;
}
*/
import "C"

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/samcharles93/vkautotune/internal/device"
)

const vkTimeout = 2 // VK_TIMEOUT

func vkErr(op string, code C.int) error {
	return newResultError(op, int(code))
}

type ctxHandle = *C.vkat_ctx

type subHandle = *C.vkat_sub

type pipeHandle = C.VkPipeline

func createContext(filter string) (ctxHandle, error) {
	cs := C.CString(filter)
	defer C.free(unsafe.Pointer(cs))
	var ctx *C.vkat_ctx
	if err := vkErr("create device", C.vkat_create(&ctx, cs)); err != nil {
		return nil, err
	}
	return ctx, nil
}

func destroyContext(ctx ctxHandle) {
	C.vkat_destroy(ctx)
}

func allocBuffers(ctx ctxHandle, a, b, c uint64) error {
	return vkErr("allocate buffers", C.vkat_alloc_buffers(ctx, C.uint64_t(a), C.uint64_t(b), C.uint64_t(c)))
}

func loadModule(ctx ctxHandle, words []uint32) error {
	if len(words) == 0 {
		return fmt.Errorf("vulkan: empty kernel binary")
	}
	return vkErr("create shader module", C.vkat_load_module(ctx, (*C.uint32_t)(unsafe.Pointer(&words[0])), C.size_t(len(words)*4)))
}

func buildPipeline(ctx ctxHandle, constants [7]uint32) (pipeHandle, error) {
	var pipe C.VkPipeline
	if err := vkErr("create compute pipeline", C.vkat_build(ctx, (*C.uint32_t)(unsafe.Pointer(&constants[0])), &pipe)); err != nil {
		return pipe, err
	}
	return pipe, nil
}

func destroyPipeline(ctx ctxHandle, pipe pipeHandle) {
	C.vkat_destroy_pipeline(ctx, pipe)
}

func submit(ctx ctxHandle, pipe pipeHandle, gx, gy, warm, rep uint32, push [6]uint32) (subHandle, error) {
	var sub *C.vkat_sub
	r := C.vkat_submit(ctx, pipe, C.uint32_t(gx), C.uint32_t(gy), C.uint32_t(warm), C.uint32_t(rep),
		(*C.uint32_t)(unsafe.Pointer(&push[0])), &sub)
	if err := vkErr("submit", r); err != nil {
		return nil, err
	}
	return sub, nil
}

// waitFence returns true when the fence signaled, false on VK_TIMEOUT.
func waitFence(ctx ctxHandle, sub subHandle, timeoutNS uint64) (bool, error) {
	r := C.vkat_wait(ctx, sub, C.uint64_t(timeoutNS))
	if r == vkTimeout {
		return false, nil
	}
	if err := vkErr("wait for fence", r); err != nil {
		return false, err
	}
	return true, nil
}

// releaseSubmission frees sub, waiting at most grace for it to finish.
// Unfinished work is parked on ctx and reported as ErrTimeout.
func releaseSubmission(ctx ctxHandle, sub subHandle, grace time.Duration) error {
	r := C.vkat_release(ctx, sub, C.uint64_t(grace.Nanoseconds()))
	if r == vkTimeout {
		return fmt.Errorf("%w: submission still running after %v, parked until it completes", device.ErrTimeout, grace)
	}
	return vkErr("release submission", r)
}

func readTimestamps(ctx ctxHandle) (uint64, uint64, error) {
	var out [2]C.uint64_t
	if err := vkErr("read timestamps", C.vkat_timestamps(ctx, &out[0])); err != nil {
		return 0, 0, err
	}
	return uint64(out[0]), uint64(out[1]), nil
}

type deviceProps struct {
	name            string
	limits          [5]uint32
	apiVersion      uint32
	driverVersion   uint32
	timestampPeriod float64
}

func queryProps(ctx ctxHandle) deviceProps {
	var raw [7]C.uint32_t
	C.vkat_info(ctx, &raw[0])
	p := deviceProps{
		name:            C.GoString(C.vkat_device_name(ctx)),
		apiVersion:      uint32(raw[5]),
		driverVersion:   uint32(raw[6]),
		timestampPeriod: float64(C.vkat_timestamp_period(ctx)),
	}
	for i := range p.limits {
		p.limits[i] = uint32(raw[i])
	}
	return p
}
